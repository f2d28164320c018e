package voicegate

import (
	"context"
	"fmt"
	"log"
	"math/rand"
)

// denialResponses are spoken at random when no profile matches, so repeated
// rejections do not sound robotic.
var denialResponses = []string{
	"Voice not recognized. Access denied.",
	"I don't recognize your voice. Please try again.",
	"Authentication failed. Your voice does not match any registered user.",
	"Access denied. Voice verification unsuccessful.",
}

// say forwards a formatted status line to the configured notifier. The
// notifier is a best-effort side channel; a panicking implementation is
// contained here and never fails the calling operation.
func (e *Engine) say(ctx context.Context, format string, args ...any) {
	if e == nil || e.notifier == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("voicegate: notifier panic: %v", r)
		}
	}()

	e.notifier.Say(ctx, fmt.Sprintf(format, args...))
}

func (e *Engine) sayDenial(ctx context.Context) {
	e.say(ctx, "%s", denialResponses[rand.Intn(len(denialResponses))])
}
