// internal/cards/words.go
package cards

// DefaultSet returns the built-in English card set, used when no card set
// file is configured. Card IDs are stable so used-ID tracking survives a
// server restart within a session.
func DefaultSet() []*Card {
	return []*Card{
		{ID: "en-001", Category: CategoryObjects, Difficulty: DifficultyEasy,
			Words: [WordsPerCard]string{"chair", "bottle", "mirror", "pillow", "ladder", "wallet", "candle", "basket"}},
		{ID: "en-002", Category: CategoryObjects, Difficulty: DifficultyEasy,
			Words: [WordsPerCard]string{"umbrella", "scissors", "toaster", "hammer", "pencil", "bucket", "helmet", "magnet"}},
		{ID: "en-003", Category: CategoryObjects, Difficulty: DifficultyMedium,
			Words: [WordsPerCard]string{"telescope", "compass", "anchor", "chandelier", "typewriter", "hourglass", "thermostat", "tripod"}},
		{ID: "en-004", Category: CategoryObjects, Difficulty: DifficultyMedium,
			Words: [WordsPerCard]string{"stethoscope", "accordion", "periscope", "metronome", "turnstile", "drawbridge", "kaleidoscope", "gramophone"}},
		{ID: "en-005", Category: CategoryObjects, Difficulty: DifficultyHard,
			Words: [WordsPerCard]string{"sextant", "astrolabe", "palanquin", "ziggurat", "trebuchet", "portcullis", "amphora", "caryatid"}},
		{ID: "en-006", Category: CategoryNature, Difficulty: DifficultyEasy,
			Words: [WordsPerCard]string{"river", "mountain", "forest", "desert", "island", "volcano", "glacier", "meadow"}},
		{ID: "en-007", Category: CategoryNature, Difficulty: DifficultyEasy,
			Words: [WordsPerCard]string{"dolphin", "penguin", "squirrel", "octopus", "giraffe", "hedgehog", "flamingo", "raccoon"}},
		{ID: "en-008", Category: CategoryNature, Difficulty: DifficultyMedium,
			Words: [WordsPerCard]string{"avalanche", "monsoon", "estuary", "tundra", "geyser", "lagoon", "archipelago", "savanna"}},
		{ID: "en-009", Category: CategoryNature, Difficulty: DifficultyMedium,
			Words: [WordsPerCard]string{"chameleon", "barnacle", "mongoose", "tarantula", "narwhal", "pangolin", "cormorant", "salamander"}},
		{ID: "en-010", Category: CategoryNature, Difficulty: DifficultyHard,
			Words: [WordsPerCard]string{"bioluminescence", "photosynthesis", "stalactite", "permafrost", "updraft", "riptide", "mycelium", "caldera"}},
		{ID: "en-011", Category: CategoryActions, Difficulty: DifficultyEasy,
			Words: [WordsPerCard]string{"whisper", "juggle", "sneeze", "shiver", "wave", "yawn", "stumble", "applaud"}},
		{ID: "en-012", Category: CategoryActions, Difficulty: DifficultyEasy,
			Words: [WordsPerCard]string{"climb", "swim", "paint", "knit", "whistle", "bounce", "march", "stretch"}},
		{ID: "en-013", Category: CategoryActions, Difficulty: DifficultyMedium,
			Words: [WordsPerCard]string{"eavesdrop", "hibernate", "ricochet", "improvise", "haggle", "mimic", "sprint", "barter"}},
		{ID: "en-014", Category: CategoryActions, Difficulty: DifficultyMedium,
			Words: [WordsPerCard]string{"serenade", "camouflage", "orbit", "capsize", "rummage", "squint", "lunge", "parry"}},
		{ID: "en-015", Category: CategoryActions, Difficulty: DifficultyHard,
			Words: [WordsPerCard]string{"procrastinate", "gesticulate", "extrapolate", "pontificate", "triangulate", "meander", "ruminate", "perambulate"}},
		{ID: "en-016", Category: CategoryPeople, Difficulty: DifficultyEasy,
			Words: [WordsPerCard]string{"firefighter", "dentist", "pilot", "magician", "plumber", "referee", "librarian", "barber"}},
		{ID: "en-017", Category: CategoryPeople, Difficulty: DifficultyEasy,
			Words: [WordsPerCard]string{"astronaut", "chef", "detective", "farmer", "tailor", "lifeguard", "conductor", "janitor"}},
		{ID: "en-018", Category: CategoryPeople, Difficulty: DifficultyMedium,
			Words: [WordsPerCard]string{"archaeologist", "ventriloquist", "cartographer", "beekeeper", "locksmith", "falconer", "auctioneer", "stuntman"}},
		{ID: "en-019", Category: CategoryPeople, Difficulty: DifficultyMedium,
			Words: [WordsPerCard]string{"diplomat", "choreographer", "blacksmith", "meteorologist", "sommelier", "puppeteer", "lighthouse keeper", "town crier"}},
		{ID: "en-020", Category: CategoryPeople, Difficulty: DifficultyHard,
			Words: [WordsPerCard]string{"ombudsman", "numismatist", "lepidopterist", "haberdasher", "cooper", "fletcher", "scrivener", "campanologist"}},
		{ID: "en-021", Difficulty: DifficultyEasy,
			Words: [WordsPerCard]string{"birthday", "rainbow", "shadow", "echo", "puzzle", "ticket", "garden", "picnic"}},
		{ID: "en-022", Difficulty: DifficultyMedium,
			Words: [WordsPerCard]string{"deadline", "rumor", "detour", "alibi", "souvenir", "blueprint", "curfew", "loophole"}},
		{ID: "en-023", Difficulty: DifficultyMedium,
			Words: [WordsPerCard]string{"marathon", "eclipse", "auction", "heirloom", "mirage", "ambush", "riddle", "stampede"}},
		{ID: "en-024", Difficulty: DifficultyHard,
			Words: [WordsPerCard]string{"zeitgeist", "serendipity", "quorum", "gambit", "penumbra", "interregnum", "palimpsest", "synecdoche"}},
	}
}
