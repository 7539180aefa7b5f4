package midi

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustMessage(m *Message, err error) *Message {
	if err != nil {
		panic(err)
	}
	return m
}

func TestMessageBytes(t *testing.T) {
	testCases := []struct {
		name   string
		msg    *Message
		expect []byte
	}{
		{"note on", mustMessage(NoteOn(1, 60, 100)), []byte{0x90, 60, 100}},
		{"note off ch16", mustMessage(NoteOff(16, 60, 0)), []byte{0x8f, 60, 0}},
		{"cc breath", mustMessage(ControlChange(3, 2, 127)), []byte{0xb2, 2, 127}},
		{"program", mustMessage(ProgramChange(1, 5)), []byte{0xc0, 5}},
		{"pressure", mustMessage(ChannelPressure(2, 64)), []byte{0xd1, 64}},
		{"bend center", mustMessage(PitchBend(1, PitchBendCenter)), []byte{0xe0, 0x00, 0x40}},
		{"bend max", mustMessage(PitchBend(1, 0x3fff)), []byte{0xe0, 0x7f, 0x7f}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, tc.msg.Bytes())
			var buf bytes.Buffer
			n, err := tc.msg.WriteTo(&buf)
			require.NoError(t, err)
			require.Equal(t, int64(len(tc.expect)), n)
			require.Equal(t, tc.expect, buf.Bytes())
		})
	}
}

func TestMessageValidation(t *testing.T) {
	_, err := NoteOn(0, 60, 100)
	require.Equal(t, ErrInvalidChannel, err)
	_, err = NoteOn(17, 60, 100)
	require.Equal(t, ErrInvalidChannel, err)

	_, err = NoteOn(1, 128, 100)
	require.IsType(t, &ErrInvalidData{}, err)
	require.Equal(t, "invalid note 128, expect 0..127", err.Error())
	_, err = ControlChange(1, 7, -1)
	require.IsType(t, &ErrInvalidData{}, err)
	_, err = PitchBend(1, 0x4000)
	require.IsType(t, &ErrInvalidData{}, err)
}

func TestMessageString(t *testing.T) {
	m := mustMessage(NoteOn(10, 36, 90))
	require.Equal(t, 10, m.Channel())
	require.Equal(t, StatusNoteOn, m.Kind())
	require.Equal(t, "ch10 note-on 36 vel 90", m.String())
	require.Equal(t, "ch1 bend 8192", mustMessage(PitchBend(1, PitchBendCenter)).String())
	require.Equal(t, "raw 90 3c", (&Message{Status: 0x90, Data: []byte{0x3c}}).String())
	require.Equal(t, 0, (&Message{Status: TimingClock}).Channel())
}

type byteSink struct{ bytes.Buffer }

func TestEncoderRunningStatus(t *testing.T) {
	var sink byteSink
	enc := NewEncoder(&sink)
	enc.RunningStatus = true

	require.NoError(t, enc.Encode(mustMessage(NoteOn(1, 60, 100))))
	require.NoError(t, enc.Encode(mustMessage(NoteOn(1, 62, 100))))
	require.NoError(t, enc.Encode(&Message{Status: TimingClock}))
	require.NoError(t, enc.Encode(mustMessage(NoteOn(1, 60, 0))))
	require.NoError(t, enc.Encode(mustMessage(NoteOn(2, 60, 1))))
	require.Equal(t, []byte{
		0x90, 60, 100,
		62, 100,
		0xf8,
		60, 0,
		0x91, 60, 1,
	}, sink.Bytes())

	sink.Reset()
	enc.ResetStatus()
	require.NoError(t, enc.Encode(mustMessage(NoteOn(2, 61, 1))))
	require.Equal(t, []byte{0x91, 61, 1}, sink.Bytes())

	sink.Reset()
	enc.RunningStatus = false
	require.NoError(t, enc.Encode(mustMessage(NoteOn(2, 61, 1))))
	require.Equal(t, []byte{0x91, 61, 1}, sink.Bytes())
}

func parseAll(p *Parser, in []byte) []*Message {
	var msgs []*Message
	for _, b := range in {
		if m := p.Parse(b); m != nil {
			msgs = append(msgs, m)
		}
	}
	return msgs
}

func TestParser(t *testing.T) {
	testCases := []struct {
		name    string
		in      []byte
		expect  []*Message
		skipped int
	}{
		{
			name:   "complete messages",
			in:     []byte{0x90, 60, 100, 0xc0, 5},
			expect: []*Message{{Status: 0x90, Data: []byte{60, 100}}, {Status: 0xc0, Data: []byte{5}}},
		},
		{
			name: "running status",
			in:   []byte{0x90, 60, 100, 62, 100, 60, 0},
			expect: []*Message{
				{Status: 0x90, Data: []byte{60, 100}},
				{Status: 0x90, Data: []byte{62, 100}},
				{Status: 0x90, Data: []byte{60, 0}},
			},
		},
		{
			name: "realtime inside message",
			in:   []byte{0x90, 60, 0xf8, 100, 62, 0xfe, 100},
			expect: []*Message{
				{Status: 0xf8},
				{Status: 0x90, Data: []byte{60, 100}},
				{Status: 0xfe},
				{Status: 0x90, Data: []byte{62, 100}},
			},
		},
		{
			name:    "data without status",
			in:      []byte{1, 2, 0xd0, 3},
			expect:  []*Message{{Status: 0xd0, Data: []byte{3}}},
			skipped: 2,
		},
		{
			name:    "sysex skipped",
			in:      []byte{0x90, 60, 100, 0xf0, 0x7e, 1, 2, 0xf7, 62, 0xb0, 1, 2},
			expect:  []*Message{{Status: 0x90, Data: []byte{60, 100}}, {Status: 0xb0, Data: []byte{1, 2}}},
			skipped: 1,
		},
		{
			name:    "system common cancels running status",
			in:      []byte{0xf3, 4, 5, 0xf6},
			expect:  []*Message{{Status: 0xf3, Data: []byte{4}}, {Status: 0xf6}},
			skipped: 1,
		},
		{
			name:   "new status abandons partial message",
			in:     []byte{0x90, 60, 0xb0, 7, 100},
			expect: []*Message{{Status: 0xb0, Data: []byte{7, 100}}},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var p Parser
			require.Equal(t, tc.expect, parseAll(&p, tc.in))
			require.Equal(t, tc.skipped, p.Skipped)
		})
	}
}

func TestParserDecodesEncoderOutput(t *testing.T) {
	var sink byteSink
	enc := NewEncoder(&sink)
	enc.RunningStatus = true
	msgs := []*Message{
		mustMessage(NoteOn(1, 60, 100)),
		mustMessage(ChannelPressure(1, 80)),
		mustMessage(ChannelPressure(1, 81)),
		mustMessage(PitchBend(1, 100)),
		mustMessage(NoteOff(1, 60, 0)),
	}
	for _, m := range msgs {
		require.NoError(t, enc.Encode(m))
	}
	var p Parser
	require.Equal(t, msgs, parseAll(&p, sink.Bytes()))
}
