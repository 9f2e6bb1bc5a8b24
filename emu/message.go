package emu

import "github.com/sarchlab/runnersim/accel"

// CoRunnerDest is the buffer-message destination of the co-runner.
const CoRunnerDest = 2

// MessageHandler receives buffer messages completed by a runner.
type MessageHandler interface {
	// HandleMessage is called once per message, in completion order.
	HandleMessage(msg accel.Message)
}

// MessageLog is a MessageHandler that keeps every message it is given.
type MessageLog struct {
	Messages []accel.Message
}

// HandleMessage records msg.
func (l *MessageLog) HandleMessage(msg accel.Message) {
	l.Messages = append(l.Messages, msg)
}

// Reset drops the recorded messages.
func (l *MessageLog) Reset() {
	l.Messages = l.Messages[:0]
}

// DeliverMessage writes a message into the BBMSG registers of the
// receiving runner.
func (r *Runner) DeliverMessage(msg accel.Message) {
	r.io.SetWord(IOBBMsg0, msg.Type<<16|msg.Dest&0xFFFF)
	r.io.SetWord(IOBBMsg1, msg.Hi)
	r.io.SetWord(IOBBMsg2, msg.Lo)
}
