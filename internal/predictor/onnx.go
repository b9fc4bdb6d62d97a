package predictor

import (
	onnxruntime "github.com/yalue/onnxruntime_go"

	"minerva/internal/domain/prediction"
	"minerva/pkg/errors"
)

// ONNXModel wraps an exported direction classifier as an optional
// inference backend. The model takes the weekly feature vector and
// returns the class index plus per-class probabilities in down, flat,
// up order.
type ONNXModel struct {
	session *onnxruntime.DynamicAdvancedSession
}

// LoadONNXModel loads the classifier from file
func LoadONNXModel(modelPath string) (*ONNXModel, error) {
	if err := onnxruntime.InitializeEnvironment(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize ONNX runtime")
	}

	options, err := onnxruntime.NewSessionOptions()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create session options")
	}
	defer options.Destroy()

	session, err := onnxruntime.NewDynamicAdvancedSession(modelPath,
		[]string{"input"}, []string{"output", "probabilities"}, options)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load ONNX model")
	}

	return &ONNXModel{session: session}, nil
}

// Predict runs inference for one feature vector
func (m *ONNXModel) Predict(features []float64) (prediction.Label, [numClasses]float64, error) {
	var probs [numClasses]float64
	if m.session == nil {
		return 0, probs, errors.Wrap(errors.ErrModelUnavailable, "model session is nil")
	}

	inputShape := onnxruntime.NewShape(1, int64(len(features)))
	inputTensor, err := onnxruntime.NewTensor(inputShape, features)
	if err != nil {
		return 0, probs, errors.Wrap(err, "failed to create input tensor")
	}
	defer inputTensor.Destroy()

	classOutput := make([]int64, 1)
	classTensor, err := onnxruntime.NewTensor(onnxruntime.NewShape(1), classOutput)
	if err != nil {
		return 0, probs, errors.Wrap(err, "failed to create class output tensor")
	}
	defer classTensor.Destroy()

	probOutput := make([]float64, numClasses)
	probTensor, err := onnxruntime.NewTensor(onnxruntime.NewShape(1, numClasses), probOutput)
	if err != nil {
		return 0, probs, errors.Wrap(err, "failed to create probabilities output tensor")
	}
	defer probTensor.Destroy()

	err = m.session.Run(
		[]onnxruntime.Value{inputTensor},
		[]onnxruntime.Value{classTensor, probTensor},
	)
	if err != nil {
		return 0, probs, errors.Wrap(err, "inference failed")
	}

	idx := int(classOutput[0])
	if idx < 0 || idx >= numClasses {
		return 0, probs, errors.Newf("invalid class index: %d", idx)
	}
	copy(probs[:], probOutput)

	return indexClass(idx), probs, nil
}

// Destroy releases the ONNX session
func (m *ONNXModel) Destroy() {
	if m.session != nil {
		m.session.Destroy()
		m.session = nil
	}
}
