package classifier

import (
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ortEnv manages global ONNX Runtime initialization (process-wide singleton).
var ortEnv struct {
	once sync.Once
	err  error
}

// initORT initializes the ONNX Runtime environment. Safe to call multiple
// times; only the first call has any effect.
func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// ONNXModel executes a pre-trained classifier through ONNX Runtime. The model
// must take a single 2D float32 input of shape [batch, width] and produce a
// 2D float32 output of per-class scores; the predicted class is the argmax.
type ONNXModel struct {
	mu         sync.Mutex
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
	width      int
	classes    int64
}

// LoadONNXModel loads the ONNX artifact at modelPath and creates an inference
// session. If libPath is empty, the ONNX Runtime shared library is expected
// next to the model file.
func LoadONNXModel(modelPath, libPath string) (*ONNXModel, error) {
	if libPath == "" {
		libPath = filepath.Join(filepath.Dir(modelPath), "libonnxruntime.so")
	}
	if err := initORT(libPath); err != nil {
		return nil, fmt.Errorf("onnx: failed to initialize runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to read model info: %w", err)
	}
	if len(inputs) != 1 {
		return nil, fmt.Errorf("onnx: expected 1 input tensor, got %d", len(inputs))
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("onnx: model has no outputs")
	}

	inDims := inputs[0].Dimensions
	if len(inDims) != 2 {
		return nil, fmt.Errorf("onnx: expected 2D input tensor, got %v", inDims)
	}
	outDims := outputs[0].Dimensions
	if len(outDims) != 2 {
		return nil, fmt.Errorf("onnx: expected 2D output tensor, got %v", outDims)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session options: %w", err)
	}
	defer opts.Destroy()
	opts.SetIntraOpNumThreads(2)
	opts.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session: %w", err)
	}

	return &ONNXModel{
		session:    session,
		inputName:  inputs[0].Name,
		outputName: outputs[0].Name,
		width:      int(inDims[1]),
		classes:    outDims[1],
	}, nil
}

// InputWidth returns the model's declared input width.
func (m *ONNXModel) InputWidth() int {
	return m.width
}

// Predict runs one inference on a single-sample batch. Session runs are
// serialized; ONNX Runtime sessions are not guaranteed safe for concurrent
// Run calls.
func (m *ONNXModel) Predict(features []float64) (Label, error) {
	data := make([]float32, len(features))
	for i, f := range features {
		data[i] = float32(f)
	}

	in, err := ort.NewTensor(ort.NewShape(1, int64(len(features))), data)
	if err != nil {
		return Label{}, fmt.Errorf("onnx: failed to create input tensor: %w", err)
	}
	defer in.Destroy()

	out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, m.classes))
	if err != nil {
		return Label{}, fmt.Errorf("onnx: failed to create output tensor: %w", err)
	}
	defer out.Destroy()

	m.mu.Lock()
	err = m.session.Run([]ort.Value{in}, []ort.Value{out})
	m.mu.Unlock()
	if err != nil {
		return Label{}, fmt.Errorf("onnx: inference failed: %w", err)
	}

	return IntLabel(argmax(out.GetData())), nil
}

// Close releases the ONNX session resources.
func (m *ONNXModel) Close() error {
	return m.session.Destroy()
}

func argmax(scores []float32) int {
	best := 0
	for i, s := range scores {
		if s > scores[best] {
			best = i
		}
	}
	return best
}
