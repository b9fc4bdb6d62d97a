package predictor

import (
	"fmt"
	"strings"
	"time"

	"minerva/internal/domain/prediction"
)

// Narrative prompt assembly. The opening sentence is fixed; the body
// lists interpretations of the top contributing features from a
// direction-conditioned lookup table, and the style constraint caps
// the answer at 3-4 plain sentences without numbers.

const narrativeSystemPrompt = "당신은 개인 투자자를 위한 주식 분석 리포트를 작성하는 금융 전문가입니다. " +
	"숫자와 전문 용어 없이 자연스러운 한국어 문장으로만 답하세요."

// featureInterpretations maps (feature, direction word) to a plain
// Korean reading of why that feature supports the predicted move
var featureInterpretations = map[string]map[string]string{
	"SMA_5": {
		"상승": "최근 단기 주가 흐름이 오름세를 뒷받침하고 있습니다",
		"하락": "최근 단기 주가 흐름이 약세를 보이고 있습니다",
		"보합": "최근 단기 주가 흐름이 뚜렷한 방향 없이 유지되고 있습니다",
	},
	"SMA_20": {
		"상승": "한 달가량의 중기 추세가 상승 쪽으로 기울어 있습니다",
		"하락": "한 달가량의 중기 추세가 하락 압력을 받고 있습니다",
		"보합": "한 달가량의 중기 추세가 큰 변화 없이 이어지고 있습니다",
	},
	"SMA_diff": {
		"상승": "단기 흐름이 중기 추세를 웃돌며 상승 탄력이 붙고 있습니다",
		"하락": "단기 흐름이 중기 추세를 밑돌며 하락 신호가 나타나고 있습니다",
		"보합": "단기와 중기 흐름의 차이가 크지 않아 방향성이 약합니다",
	},
	"RSI_14": {
		"상승": "매수세가 매도세보다 우위에 있는 상태입니다",
		"하락": "매도세가 강해 단기적으로 부담이 커진 상태입니다",
		"보합": "매수세와 매도세가 균형을 이루고 있습니다",
	},
	"Momentum_10": {
		"상승": "주가의 상승 탄력이 최근 들어 강해지고 있습니다",
		"하락": "주가의 하락 탄력이 최근 들어 강해지고 있습니다",
		"보합": "주가 움직임의 탄력이 크지 않은 상태입니다",
	},
	"ROC_10": {
		"상승": "최근 열흘간의 주가 변화율이 플러스 흐름을 보이고 있습니다",
		"하락": "최근 열흘간의 주가 변화율이 마이너스 흐름을 보이고 있습니다",
		"보합": "최근 열흘간의 주가 변화율이 미미한 수준입니다",
	},
	"price_to_peak": {
		"상승": "주가가 최근 고점 부근까지 올라서며 강한 흐름을 보이고 있습니다",
		"하락": "주가가 최근 고점에서 멀어지며 상승 여력이 줄고 있습니다",
		"보합": "주가가 최근 고점과 일정한 거리를 유지하고 있습니다",
	},
	"price_to_trough": {
		"상승": "주가가 최근 저점에서 크게 반등해 있는 상태입니다",
		"하락": "주가가 최근 저점 부근으로 다가가고 있습니다",
		"보합": "주가가 최근 저점과 고점 사이 중간 수준에 머물러 있습니다",
	},
	"consecutive_up_days": {
		"상승": "며칠째 이어진 상승 흐름이 추가 상승 기대를 키우고 있습니다",
		"하락": "연속 상승 뒤의 피로감이 조정 가능성을 높이고 있습니다",
		"보합": "연속 상승 흐름이 길지 않아 방향성에 큰 영향이 없습니다",
	},
	"consecutive_down_days": {
		"상승": "연속 하락 뒤의 반등 기대가 커지고 있습니다",
		"하락": "며칠째 이어진 하락 흐름이 추가 하락 우려를 키우고 있습니다",
		"보합": "연속 하락 흐름이 길지 않아 방향성에 큰 영향이 없습니다",
	},
}

// BuildNarrativePrompt renders the full prompt for one prediction
func BuildNarrativePrompt(refDate time.Time, label prediction.Label, contributions []prediction.Contribution) string {
	direction := label.Direction()

	var b strings.Builder
	fmt.Fprintf(&b, "%s을 기준으로, AI 모델이 다음 주 주가가 %s할 것으로 예측했습니다.\n\n",
		refDate.Format("2006-01-02"), direction)

	b.WriteString("예측의 주요 근거:\n")
	for _, contribution := range contributions {
		if reading := interpret(contribution.Feature, direction); reading != "" {
			fmt.Fprintf(&b, "- %s.\n", reading)
		}
	}

	b.WriteString("\n위 내용을 바탕으로 투자자에게 전달할 설명을 3~4개의 자연스러운 문장으로 작성하세요. " +
		"숫자, 지표 이름, 기술적 용어는 사용하지 마세요. " +
		"첫 문장은 반드시 예측 결과를 그대로 전달해야 합니다.")
	return b.String()
}

// FallbackNarrative is the deterministic summary used when the
// language model is unreachable: the fixed opening plus the raw
// interpretation sentences
func FallbackNarrative(refDate time.Time, label prediction.Label, contributions []prediction.Contribution) string {
	direction := label.Direction()

	parts := []string{fmt.Sprintf("%s을 기준으로, AI 모델이 다음 주 주가가 %s할 것으로 예측했습니다.",
		refDate.Format("2006-01-02"), direction)}
	for _, contribution := range contributions {
		if reading := interpret(contribution.Feature, direction); reading != "" {
			parts = append(parts, reading+".")
		}
	}
	return strings.Join(parts, " ")
}

// EmptyWindowNarrative is returned when the price window yields no
// prediction row after resampling
func EmptyWindowNarrative(ticker string) string {
	return fmt.Sprintf("%s 종목은 해당 기간의 가격 데이터가 충분하지 않아 예측을 제공할 수 없습니다.", ticker)
}

func interpret(feature, direction string) string {
	byDirection, ok := featureInterpretations[feature]
	if !ok {
		return ""
	}
	return byDirection[direction]
}
