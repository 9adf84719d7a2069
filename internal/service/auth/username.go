package auth

import (
	"fmt"
	"math/rand"
)

var (
	adjectives = []string{
		"Brave", "Clever", "Swift", "Mighty", "Wise", "Fierce", "Gentle", "Noble", "Bold", "Curious",
		"Quiet", "Loyal", "Daring", "Fearless", "Friendly", "Witty", "Eager", "Kind", "Charming", "Jolly",
	}
	nouns = []string{
		"Lion", "Tiger", "Eagle", "Bear", "Fox", "Wolf", "Dragon", "Hawk", "Panther", "Falcon",
		"Raven", "Phoenix", "Shark", "Dolphin", "Otter", "Panda", "Gorilla", "Leopard", "Whale", "Unicorn",
	}
	colors = []string{
		"#e6194b", "#3cb44b", "#ffe119", "#4363d8", "#f58231", "#911eb4",
		"#46f0f0", "#f032e6", "#bcf60c", "#fabebe", "#008080", "#9a6324",
	}
)

// RandomUsername returns an "Adjective Noun" display name.
func RandomUsername() string {
	return fmt.Sprintf("%s %s", adjectives[rand.Intn(len(adjectives))], nouns[rand.Intn(len(nouns))])
}

func RandomColor() string {
	return colors[rand.Intn(len(colors))]
}
