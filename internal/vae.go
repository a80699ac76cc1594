package internal

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var _ Model = (*VAE)(nil)

const (
	encoderFile = "encoder.onnx"
	decoderFile = "decoder.onnx"
)

// VAE runs the pretrained encoder and decoder heads of a checkpoint through
// onnxruntime. All session calls are serialized behind a mutex.
type VAE struct {
	mu      sync.Mutex
	spec    ModelSpec
	device  Device
	encoder *ort.DynamicAdvancedSession
	decoder *ort.DynamicAdvancedSession
}

func LoadVAE(checkpointDir string, spec ModelSpec) (*VAE, error) {
	if err := initRuntime(); err != nil {
		return nil, fmt.Errorf("init onnxruntime: %w", err)
	}

	device := DetectHardware()

	options, err := sessionOptions(device)
	if err != nil {
		return nil, fmt.Errorf("session options: %w", err)
	}
	defer options.Destroy()

	var encoder, decoder *ort.DynamicAdvancedSession
	success := false
	defer func() {
		if success {
			return
		}
		if encoder != nil {
			encoder.Destroy()
		}
		if decoder != nil {
			decoder.Destroy()
		}
	}()

	encoder, err = ort.NewDynamicAdvancedSession(
		filepath.Join(checkpointDir, encoderFile),
		[]string{"inputs"}, []string{"mu", "sigma"}, options)
	if err != nil {
		return nil, fmt.Errorf("load encoder: %w", err)
	}

	decoder, err = ort.NewDynamicAdvancedSession(
		filepath.Join(checkpointDir, decoderFile),
		[]string{"z", "temperature"}, []string{"outputs"}, options)
	if err != nil {
		return nil, fmt.Errorf("load decoder: %w", err)
	}

	success = true
	return &VAE{
		spec:    spec,
		device:  device,
		encoder: encoder,
		decoder: decoder,
	}, nil
}

func (m *VAE) Config() ModelSpec {
	return m.spec
}

func (m *VAE) Device() string {
	return string(m.device)
}

// Sample decodes n draws from the standard-normal prior.
func (m *VAE) Sample(ctx context.Context, n, length int, temperature float64) ([]Sequence, error) {
	encodings := make([]Encoding, n)
	for i := range encodings {
		z := make([]float32, m.spec.ZSize)
		for j := range z {
			z[j] = float32(rand.NormFloat64())
		}
		encodings[i] = Encoding{Z: z}
	}

	return m.Decode(ctx, encodings, length, temperature)
}

// Interpolate decodes evenly spaced points on the spherical path between the
// posterior means of the two endpoints, endpoints included.
func (m *VAE) Interpolate(ctx context.Context, start, end Sequence, steps, length int, temperature float64) ([]Sequence, error) {
	if steps < 2 {
		return nil, fmt.Errorf("interpolate: need at least 2 outputs, got %d", steps)
	}

	ends, err := m.Encode(ctx, []Sequence{start, end})
	if err != nil {
		return nil, err
	}

	encodings := make([]Encoding, steps)
	for i := range encodings {
		t := float64(i) / float64(steps-1)
		encodings[i] = Encoding{Z: slerp(ends[0].Mu, ends[1].Mu, t)}
	}

	return m.Decode(ctx, encodings, length, temperature)
}

// Encode runs all sequences through the encoder head in one batch and
// reparameterizes a latent draw per sequence.
func (m *VAE) Encode(ctx context.Context, seqs []Sequence) ([]Encoding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(seqs) == 0 {
		return nil, ErrEmptySequence
	}

	steps := m.spec.SampleSteps()
	features := m.spec.Features

	batch := make([]float32, 0, len(seqs)*steps*features)
	for i, seq := range seqs {
		roll, err := SequenceToRoll(seq, steps, features)
		if err != nil {
			return nil, fmt.Errorf("encode sequence %d: %w", i, err)
		}
		batch = append(batch, roll...)
	}

	input, err := ort.NewTensor(ort.NewShape(int64(len(seqs)), int64(steps), int64(features)), batch)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	defer input.Destroy()

	outputs := []ort.Value{nil, nil}

	m.mu.Lock()
	err = m.encoder.Run([]ort.Value{input}, outputs)
	m.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("run encoder: %w", err)
	}

	muTensor := outputs[0].(*ort.Tensor[float32])
	sigmaTensor := outputs[1].(*ort.Tensor[float32])
	defer muTensor.Destroy()
	defer sigmaTensor.Destroy()

	muData := muTensor.GetData()
	sigmaData := sigmaTensor.GetData()
	zSize := m.spec.ZSize
	if len(muData) != len(seqs)*zSize {
		return nil, fmt.Errorf("encoder returned %d values, want %d", len(muData), len(seqs)*zSize)
	}

	encodings := make([]Encoding, len(seqs))
	for i := range encodings {
		mu := append([]float32(nil), muData[i*zSize:(i+1)*zSize]...)
		sigma := append([]float32(nil), sigmaData[i*zSize:(i+1)*zSize]...)

		z := make([]float32, zSize)
		for j := range z {
			z[j] = mu[j] + sigma[j]*float32(rand.NormFloat64())
		}

		encodings[i] = Encoding{Z: z, Mu: mu, Sigma: sigma, QPM: seqs[i].qpm()}
	}

	return encodings, nil
}

// Decode turns latent vectors back into sequences through the decoder head.
// length must match the model's trained context.
func (m *VAE) Decode(ctx context.Context, encodings []Encoding, length int, temperature float64) ([]Sequence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(encodings) == 0 {
		return nil, ErrEmptySequence
	}
	if length != m.spec.SampleSteps() {
		return nil, fmt.Errorf("decode length %d does not match model context %d", length, m.spec.SampleSteps())
	}

	zSize := m.spec.ZSize
	batch := make([]float32, 0, len(encodings)*zSize)
	for i, enc := range encodings {
		if len(enc.Z) != zSize {
			return nil, fmt.Errorf("encoding %d has %d dimensions, want %d", i, len(enc.Z), zSize)
		}
		batch = append(batch, enc.Z...)
	}

	zTensor, err := ort.NewTensor(ort.NewShape(int64(len(encodings)), int64(zSize)), batch)
	if err != nil {
		return nil, fmt.Errorf("create z tensor: %w", err)
	}
	defer zTensor.Destroy()

	tempTensor, err := ort.NewTensor(ort.NewShape(1), []float32{float32(temperature)})
	if err != nil {
		return nil, fmt.Errorf("create temperature tensor: %w", err)
	}
	defer tempTensor.Destroy()

	outputs := []ort.Value{nil}

	m.mu.Lock()
	err = m.decoder.Run([]ort.Value{zTensor, tempTensor}, outputs)
	m.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("run decoder: %w", err)
	}

	rollTensor := outputs[0].(*ort.Tensor[float32])
	defer rollTensor.Destroy()

	features := m.spec.Features
	data := rollTensor.GetData()
	per := length * features
	if len(data) != len(encodings)*per {
		return nil, fmt.Errorf("decoder returned %d values, want %d", len(data), len(encodings)*per)
	}

	seqs := make([]Sequence, len(encodings))
	for i := range seqs {
		qpm := encodings[i].QPM
		if qpm <= 0 {
			qpm = DefaultQPM
		}
		seq, err := RollToSequence(data[i*per:(i+1)*per], length, features, m.spec.StepsPerQuarter, qpm)
		if err != nil {
			return nil, fmt.Errorf("decode output %d: %w", i, err)
		}
		seqs[i] = seq
	}

	return seqs, nil
}

func (m *VAE) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.encoder != nil {
		m.encoder.Destroy()
		m.encoder = nil
	}
	if m.decoder != nil {
		m.decoder.Destroy()
		m.decoder = nil
	}

	return nil
}

func initRuntime() error {
	if ort.IsInitialized() {
		return nil
	}
	if path := sharedLibraryPath(); path != "" {
		ort.SetSharedLibraryPath(path)
	}
	return ort.InitializeEnvironment()
}

func sharedLibraryPath() string {
	if path := os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH"); path != "" {
		return path
	}
	switch runtime.GOOS {
	case "darwin":
		return "/opt/homebrew/lib/libonnxruntime.dylib"
	case "linux":
		return "/usr/lib/libonnxruntime.so"
	default:
		return ""
	}
}

func sessionOptions(device Device) (*ort.SessionOptions, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, err
	}

	switch device {
	case DeviceCoreML:
		if err := options.AppendExecutionProviderCoreML(0); err != nil {
			options.Destroy()
			return nil, err
		}
	case DeviceCUDA:
		cudaOptions, err := ort.NewCUDAProviderOptions()
		if err != nil {
			options.Destroy()
			return nil, err
		}
		defer cudaOptions.Destroy()
		if err := options.AppendExecutionProviderCUDA(cudaOptions); err != nil {
			options.Destroy()
			return nil, err
		}
	}

	return options, nil
}

// slerp interpolates on the great circle through a and b, falling back to
// linear interpolation when the vectors are nearly colinear.
func slerp(a, b []float32, t float64) []float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	out := make([]float32, len(a))
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		copy(out, a)
		return out
	}

	cos := dot / denom
	if cos > 0.9995 || cos < -0.9995 {
		for i := range out {
			out[i] = float32((1-t)*float64(a[i]) + t*float64(b[i]))
		}
		return out
	}

	theta := math.Acos(cos)
	sin := math.Sin(theta)
	wa := math.Sin((1-t)*theta) / sin
	wb := math.Sin(t*theta) / sin
	for i := range out {
		out[i] = float32(wa*float64(a[i]) + wb*float64(b[i]))
	}
	return out
}
