package thought

import (
	"fmt"
	"math/rand"
	"strings"
)

// The phrase banks below are deliberately small; the simulation cares about
// when agents talk, not what they say.

var musings = []string{
	"I've been thinking about the weather lately.",
	"Did you ever notice how quiet it gets at night?",
	"I read something interesting this morning.",
	"There's a pattern here I can't quite name.",
	"Sometimes I just want to say something out loud.",
	"I wonder what the others are up to.",
	"That reminds me of something from last week.",
	"Let me put a thought out there.",
	"I keep coming back to the same idea.",
	"Here's something worth mentioning.",
}

var replyOpeners = []string{
	"Interesting point about %q.",
	"I hear you on %q.",
	"When you said %q, it made me think.",
	"Going back to %q for a moment.",
	"You mentioned %q — I have thoughts.",
}

// maxQuoted bounds how much of a heard message gets echoed in a reply.
const maxQuoted = 24

// spontaneous picks an unprompted musing.
func spontaneous(rng *rand.Rand) string {
	return musings[rng.Intn(len(musings))]
}

// replyTo formulates a reply referencing the heard text.
func replyTo(heard string, rng *rand.Rand) string {
	quoted := strings.TrimSpace(heard)
	if runes := []rune(quoted); len(runes) > maxQuoted {
		quoted = string(runes[:maxQuoted]) + "…"
	}
	return fmt.Sprintf(replyOpeners[rng.Intn(len(replyOpeners))], quoted)
}
