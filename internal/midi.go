package internal

import (
	"fmt"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	ticksPerQuarter = 480
	drumChannel     = 9
)

// WriteSequenceFile writes seq as a single-track standard MIDI file with all
// notes on the General MIDI percussion channel.
func WriteSequenceFile(path string, seq Sequence) error {
	if len(seq.Notes) == 0 {
		return ErrEmptySequence
	}

	qpm := seq.qpm()
	secondsPerTick := 60.0 / (qpm * ticksPerQuarter)

	type event struct {
		tick uint32
		off  bool
		msg  midi.Message
	}

	events := make([]event, 0, 2*len(seq.Notes))
	for _, n := range seq.Notes {
		start := uint32(n.Start/secondsPerTick + 0.5)
		end := uint32(n.End/secondsPerTick + 0.5)
		if end <= start {
			end = start + 1
		}
		events = append(events,
			event{tick: start, msg: midi.NoteOn(drumChannel, uint8(n.Pitch), uint8(clampVelocity(n.Velocity)))},
			event{tick: end, off: true, msg: midi.NoteOff(drumChannel, uint8(n.Pitch))},
		)
	}

	// note-offs first at equal ticks so retriggered pitches do not hang
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return events[i].off && !events[j].off
	})

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(ticksPerQuarter)

	var tr smf.Track
	tr.Add(0, smf.MetaMeter(uint8(meterOrDefault(seq.Numerator)), uint8(meterOrDefault(seq.Denominator))))
	tr.Add(0, smf.MetaTempo(qpm))

	var last uint32
	for _, ev := range events {
		tr.Add(ev.tick-last, ev.msg)
		last = ev.tick
	}
	tr.Close(0)
	s.Add(tr)

	if err := s.WriteFile(path); err != nil {
		return fmt.Errorf("write midi: %w", err)
	}
	return nil
}

// ReadSequenceFile parses a standard MIDI file into a Sequence. Tempo and
// meter come from the first matching meta events; notes from all tracks are
// merged onto one timeline.
func ReadSequenceFile(path string) (Sequence, error) {
	s, err := smf.ReadFile(path)
	if err != nil {
		return Sequence{}, fmt.Errorf("read midi: %w", err)
	}

	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return Sequence{}, fmt.Errorf("unsupported time format %v", s.TimeFormat)
	}
	resolution := float64(uint16(ticks))

	seq := NewSequence(0)
	qpm := DefaultQPM

	type voice struct {
		channel uint8
		key     uint8
	}
	type open struct {
		start    float64
		velocity uint8
	}

	for _, tr := range s.Tracks {
		pending := make(map[voice]open)
		var at float64

		for _, ev := range tr {
			// deltas elapse at the tempo in effect, so a tempo change
			// only affects events after it
			at += float64(ev.Delta) * 60.0 / (qpm * resolution)

			var bpm float64
			if ev.Message.GetMetaTempo(&bpm) && bpm > 0 {
				qpm = bpm
				continue
			}

			var num, denom uint8
			if ev.Message.GetMetaMeter(&num, &denom) {
				seq.Numerator = int(num)
				seq.Denominator = int(denom)
				continue
			}

			var ch, key, vel uint8
			if ev.Message.GetNoteStart(&ch, &key, &vel) {
				pending[voice{ch, key}] = open{start: at, velocity: vel}
				continue
			}
			if ev.Message.GetNoteEnd(&ch, &key) {
				o, found := pending[voice{ch, key}]
				if !found {
					continue
				}
				delete(pending, voice{ch, key})
				seq.Notes = append(seq.Notes, Note{
					Pitch:    int(key),
					Velocity: int(o.velocity),
					Start:    o.start,
					End:      at,
				})
				if at > seq.TotalTime {
					seq.TotalTime = at
				}
			}
		}

		// close anything left hanging at the end of the track
		for v, o := range pending {
			end := o.start + 60.0/(qpm*4)
			seq.Notes = append(seq.Notes, Note{
				Pitch:    int(v.key),
				Velocity: int(o.velocity),
				Start:    o.start,
				End:      end,
			})
			if end > seq.TotalTime {
				seq.TotalTime = end
			}
		}
	}

	seq.QPM = qpm
	sort.SliceStable(seq.Notes, func(i, j int) bool { return seq.Notes[i].Start < seq.Notes[j].Start })
	return seq, nil
}

func meterOrDefault(v int) int {
	if v <= 0 {
		return 4
	}
	return v
}
