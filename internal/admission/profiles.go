package admission

// Built-in pools for the random profile endpoint, for players who join
// without typing a name.
var profileNames = []string{
	"Ace", "Bluff", "Boots", "Bucky", "Cricket", "Dakota", "Dealer",
	"Dice", "Fish", "Flash", "Gus", "Hawk", "Jinx", "Lefty", "Lucky",
	"Maverick", "Mona", "Pickles", "Pocket", "Raise", "River", "Rocket",
	"Rusty", "Scout", "Shark", "Slick", "Smokey", "Tex", "Turbo", "Ziggy",
}

var profileEmojis = []string{
	"🦊", "🐸", "🦈", "🐙", "🦉", "🐯", "🐼", "🦅", "🐺", "🦁",
	"🐵", "🐰", "🦝", "🐻", "🐨", "🦄", "🎲", "🃏", "🏆", "🌵",
}
