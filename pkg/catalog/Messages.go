package catalog

import "math/rand/v2"

type MessageKind string

const (
	MessageInstructions MessageKind = "instructions"
	MessageCompletion   MessageKind = "completion"
)

const fallbackMessage = "Let's take some photos!"

var messages = map[MessageKind][]string{
	MessageInstructions: {
		"Strike a pose! 📸",
		"Say cheese! 🧀",
		"Look fabulous! ✨",
		"Show me your best smile! 😊",
		"Let's capture this moment! 📷",
		"Ready for your close-up? 🌟",
	},
	MessageCompletion: {
		"Perfect! You look amazing! ✨",
		"Great shots! 📸",
		"Fabulous photos! 🌟",
		"You're a natural! 😊",
		"These turned out great! 👌",
	},
}

var countdownMessages = map[int]string{
	3: "Get ready...",
	2: "Almost there...",
	1: "Say cheese!",
	0: "📸 CLICK!",
}

func Messages(kind MessageKind) []string {
	list := messages[kind]
	result := make([]string, len(list))
	copy(result, list)
	return result
}

/*
Message picks a message of the given kind using rng. The same source state
yields the same message.
*/
func Message(kind MessageKind, rng *rand.Rand) string {
	list := messages[kind]
	if len(list) == 0 {
		return fallbackMessage
	}

	return list[rng.IntN(len(list))]
}

/*
MessageAt returns the message at index, wrapping around the list.
*/
func MessageAt(kind MessageKind, index int) string {
	list := messages[kind]
	if len(list) == 0 {
		return fallbackMessage
	}

	index %= len(list)
	if index < 0 {
		index += len(list)
	}

	return list[index]
}

func CountdownMessage(n int) string {
	return countdownMessages[n]
}
