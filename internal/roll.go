package internal

import (
	"fmt"
	"math"
)

// The nine-class drum vocabulary the pretrained checkpoints were trained on.
// General MIDI percussion pitches collapse onto one canonical pitch per class.
const numDrumClasses = 9

var drumClassPitches = [numDrumClasses]int{36, 38, 42, 46, 45, 48, 50, 49, 51}

var drumClassAliases = [numDrumClasses][]int{
	{35, 36},             // kick
	{37, 38, 39, 40},     // snare
	{42, 44},             // closed hi-hat
	{46},                 // open hi-hat
	{41, 43, 45},         // low tom
	{47, 48},             // mid tom
	{50},                 // high tom
	{49, 52, 55, 57},     // crash
	{51, 53, 59},         // ride
}

var pitchToDrumClass = func() map[int]int {
	m := make(map[int]int)
	for class, pitches := range drumClassAliases {
		for _, p := range pitches {
			m[p] = class
		}
	}
	return m
}()

const defaultHitVelocity = 100

// SequenceToRoll flattens a quantized sequence into the model's input tensor
// layout: steps x features, row-major. For plain drum models the features are
// binary hits per class; groove models append per-class velocity (0-1) and
// timing offset (fraction of a step, -0.5..0.5).
func SequenceToRoll(seq Sequence, steps, features int) ([]float32, error) {
	if !seq.IsQuantized() {
		return nil, ErrUnquantized
	}
	if features != numDrumClasses && features != 3*numDrumClasses {
		return nil, fmt.Errorf("unsupported feature count %d", features)
	}

	roll := make([]float32, steps*features)
	step := StepSeconds(seq.qpm(), seq.StepsPerQuarter)

	for _, n := range seq.Notes {
		class, ok := pitchToDrumClass[n.Pitch]
		if !ok {
			continue // non-drum pitch, dropped like the trained converter does
		}

		exact := n.Start / step
		idx := int(math.Round(exact))
		if idx < 0 || idx >= steps {
			continue
		}

		base := idx * features
		roll[base+class] = 1
		if features == 3*numDrumClasses {
			roll[base+numDrumClasses+class] = float32(n.Velocity) / 127.0
			roll[base+2*numDrumClasses+class] = float32(exact - float64(idx))
		}
	}

	return roll, nil
}

// RollToSequence inverts SequenceToRoll for model output. Hit probabilities
// are thresholded at 0.5. Groove rolls carry their own velocities and timing
// offsets; plain drum rolls get a fixed velocity on the grid.
func RollToSequence(roll []float32, steps, features, stepsPerQuarter int, qpm float64) (Sequence, error) {
	if features != numDrumClasses && features != 3*numDrumClasses {
		return Sequence{}, fmt.Errorf("unsupported feature count %d", features)
	}
	if len(roll) != steps*features {
		return Sequence{}, fmt.Errorf("roll has %d values, want %d", len(roll), steps*features)
	}

	seq := NewSequence(qpm)
	seq.StepsPerQuarter = stepsPerQuarter
	step := StepSeconds(seq.qpm(), seq.StepsPerQuarter)
	groove := features == 3*numDrumClasses

	for i := 0; i < steps; i++ {
		base := i * features
		for class := 0; class < numDrumClasses; class++ {
			if roll[base+class] < 0.5 {
				continue
			}

			start := float64(i) * step
			velocity := defaultHitVelocity
			if groove {
				v := roll[base+numDrumClasses+class]
				if v > 0 {
					velocity = clampVelocity(int(math.Round(float64(v) * 127)))
				}
				offset := float64(roll[base+2*numDrumClasses+class])
				if offset > 0.5 {
					offset = 0.5
				} else if offset < -0.5 {
					offset = -0.5
				}
				start += offset * step
				if start < 0 {
					start = 0
				}
			}

			seq.Notes = append(seq.Notes, Note{
				Pitch:    drumClassPitches[class],
				Velocity: velocity,
				Start:    start,
				End:      start + step,
			})
		}
	}

	seq.TotalTime = float64(steps) * step
	return seq, nil
}

func clampVelocity(v int) int {
	if v < 1 {
		return 1
	}
	if v > 127 {
		return 127
	}
	return v
}
