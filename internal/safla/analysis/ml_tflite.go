//go:build tflite

package analysis

import (
	"os"

	"github.com/mattn/go-tflite"
)

// tfliteModelPathEnv names the environment variable the tflite-backed
// detector reads its exported isolation-forest model from. Grounded on
// internal/orbital/vision/tflite_processor.go's
// NewTFLiteVisionProcessor/Initialize(modelPath) shape, adapted from image
// classification to scoring a [scaled-value, hour, day-of-week] feature
// vector.
const tfliteModelPathEnv = "SAFLA_ML_ANOMALY_MODEL_PATH"

// newMLBackend loads a tflite-exported isolation-forest scorer when built
// with -tags=tflite. If the model path is unset or fails to load, it falls
// back to the pure-Go scorer rather than failing the whole analyzer —
// consistent with §4.D's "no analyzer failure aborts the phase".
func newMLBackend() mlBackend {
	path := os.Getenv(tfliteModelPathEnv)
	if path == "" {
		return &isolationScoreBackend{}
	}

	model := tflite.NewModelFromFile(path)
	if model == nil {
		return &isolationScoreBackend{}
	}
	interpreter := tflite.NewInterpreter(model, nil)
	if interpreter == nil {
		model.Delete()
		return &isolationScoreBackend{}
	}
	if status := interpreter.AllocateTensors(); status != tflite.OK {
		interpreter.Delete()
		model.Delete()
		return &isolationScoreBackend{}
	}

	return &tfliteMLBackend{model: model, interpreter: interpreter, fallback: &isolationScoreBackend{}}
}

type tfliteMLBackend struct {
	model       *tflite.Model
	interpreter *tflite.Interpreter
	fallback    *isolationScoreBackend
}

func (b *tfliteMLBackend) Score(features [][3]float64, contamination float64) []bool {
	input := b.interpreter.GetInputTensor(0)
	output := b.interpreter.GetOutputTensor(0)
	if input == nil || output == nil {
		return b.fallback.Score(features, contamination)
	}

	out := make([]bool, len(features))
	for i, f := range features {
		input.SetFloat32s([]float32{float32(f[0]), float32(f[1]), float32(f[2])})
		if status := b.interpreter.Invoke(); status != tflite.OK {
			out[i] = false
			continue
		}
		scores := output.Float32s()
		if len(scores) == 0 {
			out[i] = false
			continue
		}
		out[i] = scores[0] >= float32(1-contamination)
	}
	return out
}

func (b *tfliteMLBackend) Close() {
	b.interpreter.Delete()
	b.model.Delete()
}
