package internal

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrEmptySequence  = errors.New("sequence has no notes")
	ErrBadCardinality = errors.New("interpolation requires exactly two sequences")
	ErrUnquantized    = errors.New("sequence is not quantized")
	ErrUnknownModel   = errors.New("unknown model")
)

// Note is a single drum hit. Times are in seconds.
type Note struct {
	Pitch    int
	Velocity int
	Start    float64
	End      float64
}

// Sequence is an immutable value: operations return a new Sequence and never
// mutate the receiver's note list.
type Sequence struct {
	Notes           []Note
	QPM             float64
	Numerator       int
	Denominator     int
	StepsPerQuarter int
	TotalTime       float64
}

const DefaultQPM = 120.0

func NewSequence(qpm float64) Sequence {
	if qpm <= 0 {
		qpm = DefaultQPM
	}
	return Sequence{
		QPM:         qpm,
		Numerator:   4,
		Denominator: 4,
	}
}

// StepSeconds returns the length of one grid step in seconds.
func StepSeconds(qpm float64, stepsPerQuarter int) float64 {
	return 60.0 / (qpm * float64(stepsPerQuarter))
}

// BarSeconds returns the length of one 4/4 bar in seconds.
func BarSeconds(qpm float64) float64 {
	return 4 * 60.0 / qpm
}

func (s Sequence) IsQuantized() bool {
	return s.StepsPerQuarter > 0
}

// Quantize snaps note times to a fixed grid of stepsPerQuarter steps per
// quarter note. Note ends are kept at least one step after their starts.
func (s Sequence) Quantize(stepsPerQuarter int) Sequence {
	step := StepSeconds(s.qpm(), stepsPerQuarter)

	out := s
	out.StepsPerQuarter = stepsPerQuarter
	out.Notes = make([]Note, len(s.Notes))

	for i, n := range s.Notes {
		start := math.Round(n.Start/step) * step
		end := math.Round(n.End/step) * step
		if end <= start {
			end = start + step
		}
		out.Notes[i] = Note{Pitch: n.Pitch, Velocity: n.Velocity, Start: start, End: end}
		if end > out.TotalTime {
			out.TotalTime = end
		}
	}

	if out.TotalTime < s.TotalTime {
		out.TotalTime = s.TotalTime
	}
	return out
}

// Steps returns the number of grid steps covered by the sequence.
func (s Sequence) Steps() (int, error) {
	if !s.IsQuantized() {
		return 0, ErrUnquantized
	}
	step := StepSeconds(s.qpm(), s.StepsPerQuarter)
	return int(math.Ceil(s.TotalTime/step - 1e-9)), nil
}

// Concatenate stitches sequences onto one timeline. durations gives the slot
// length in seconds reserved for each input; when nil, each sequence's total
// time is used. Tempo and meter come from the first input.
func Concatenate(seqs []Sequence, durations []float64) (Sequence, error) {
	if len(seqs) == 0 {
		return Sequence{}, ErrEmptySequence
	}
	if durations != nil && len(durations) != len(seqs) {
		return Sequence{}, fmt.Errorf("concatenate: %d sequences but %d durations", len(seqs), len(durations))
	}

	out := seqs[0]
	out.Notes = nil
	out.TotalTime = 0

	offset := 0.0
	for i, seq := range seqs {
		for _, n := range seq.Notes {
			shifted := n
			shifted.Start += offset
			shifted.End += offset
			out.Notes = append(out.Notes, shifted)
			if shifted.End > out.TotalTime {
				out.TotalTime = shifted.End
			}
		}

		if durations != nil {
			offset += durations[i]
		} else {
			offset += seq.TotalTime
		}
	}

	if offset > out.TotalTime {
		out.TotalTime = offset
	}
	return out, nil
}

// Split cuts the sequence into chunks of chunkSeconds each. Notes belong to
// the chunk their start falls in; ends are clipped to the chunk boundary.
// The last chunk may be shorter than chunkSeconds.
func (s Sequence) Split(chunkSeconds float64) ([]Sequence, error) {
	if chunkSeconds <= 0 {
		return nil, fmt.Errorf("split: chunk duration must be positive, got %g", chunkSeconds)
	}
	if len(s.Notes) == 0 {
		return nil, ErrEmptySequence
	}

	count := int(math.Ceil(s.TotalTime/chunkSeconds - 1e-9))
	if count < 1 {
		count = 1
	}

	chunks := make([]Sequence, count)
	for i := range chunks {
		chunks[i] = s
		chunks[i].Notes = nil
		chunks[i].TotalTime = chunkSeconds
	}
	if rem := s.TotalTime - float64(count-1)*chunkSeconds; rem > 0 && rem < chunkSeconds {
		chunks[count-1].TotalTime = rem
	}

	for _, n := range s.Notes {
		idx := int(n.Start / chunkSeconds)
		if idx >= count {
			idx = count - 1
		}

		base := float64(idx) * chunkSeconds
		clipped := n
		clipped.Start -= base
		clipped.End -= base
		if clipped.End > chunkSeconds {
			clipped.End = chunkSeconds
		}
		chunks[idx].Notes = append(chunks[idx].Notes, clipped)
	}

	return chunks, nil
}

func (s Sequence) qpm() float64 {
	if s.QPM <= 0 {
		return DefaultQPM
	}
	return s.QPM
}
