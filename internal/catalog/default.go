package catalog

// Default returns the built-in catalog used when no CATALOG_PATH is set.
// Every recharge tier credits ten coins per currency unit plus a bonus.
func Default() *Catalog {
	return &Catalog{
		RechargeTiers: []RechargeTier{
			{Amount: 6, Coins: 60, Bonus: 0},
			{Amount: 30, Coins: 300, Bonus: 30},
			{Amount: 68, Coins: 680, Bonus: 102},
			{Amount: 128, Coins: 1280, Bonus: 256},
			{Amount: 328, Coins: 3280, Bonus: 984},
			{Amount: 648, Coins: 6480, Bonus: 3240},
		},
		Characters: []CharacterSpec{
			{
				Name:        "Snow",
				Avatar:      "/avatars/snow.png",
				Description: "A soft-spoken illustrator who always has time to listen.",
				Personality: "gentle,caring",
				Category:    "romance",
				Tags:        []string{"gentle", "art", "healing"},
				Greeting:    "Hi~ I'm Snow. It's so nice to meet you! How has your day been?",
			},
			{
				Name:        "Irene",
				Avatar:      "/avatars/irene.png",
				Description: "A dance student with endless energy and too many plans for the weekend.",
				Personality: "lively,cheerful",
				Category:    "friend",
				Tags:        []string{"lively", "dance", "sunshine"},
				Greeting:    "Hey hey! I'm Irene! Wanna hear what happened at practice today?",
			},
			{
				Name:        "Yao",
				Avatar:      "/avatars/yao.png",
				Description: "A violinist who keeps people at arm's length, until she doesn't.",
				Personality: "aloof,elegant",
				Category:    "romance",
				Tags:        []string{"aloof", "music", "elegant"},
				Greeting:    "Oh. You're here. Fine, we can talk for a while!",
				Premium:     true,
				Price:       100,
			},
			{
				Name:        "Kit",
				Avatar:      "/avatars/kit.png",
				Description: "A fox spirit from the mountain shrine who answers questions with riddles.",
				Personality: "mysterious,playful",
				Category:    "fantasy",
				Tags:        []string{"mysterious", "fox", "folklore"},
				Greeting:    "You found the shrine... Few travelers do. What brings you here~",
				Premium:     true,
				Price:       200,
			},
			{
				Name:        "Orion",
				Avatar:      "/avatars/orion.png",
				Description: "An astronomer who explains the universe one question at a time.",
				Personality: "rational,patient",
				Category:    "mentor",
				Tags:        []string{"rational", "science", "stars"},
				Greeting:    "Good evening. The sky is clear tonight. What would you like to explore?",
			},
		},
		Gifts: []GiftSpec{
			{Name: "Flower", Icon: "🌼", Price: 10, Affinity: 1, Description: "A small flower picked on the way.", SortOrder: 1},
			{Name: "Lollipop", Icon: "🍭", Price: 20, Affinity: 2, Description: "Sweet and colorful.", SortOrder: 2},
			{Name: "Rose", Icon: "🌹", Price: 50, Affinity: 5, Description: "A classic red rose.", SortOrder: 3},
			{Name: "Chocolate", Icon: "🍫", Price: 100, Affinity: 10, Description: "A box of fine chocolate.", SortOrder: 4},
			{Name: "Crown", Icon: "👑", Price: 500, Affinity: 50, Description: "For your royalty.", SortOrder: 5},
			{Name: "Castle", Icon: "🏰", Price: 1000, Affinity: 100, Description: "A castle in the clouds.", SortOrder: 6},
			{Name: "Star", Icon: "⭐", Price: 2000, Affinity: 200, Description: "A star named after them.", SortOrder: 7},
			{Name: "Rocket", Icon: "🚀", Price: 5000, Affinity: 500, Description: "Straight to the moon.", SortOrder: 8},
		},
		Moments: []MomentSpec{
			{Character: "Snow", Content: "Finished a new watercolor of the lake this morning. The light was perfect~", Images: []string{"/moments/snow-lake.jpg"}},
			{Character: "Irene", Content: "Nailed the turn sequence at practice today!! Celebration bubble tea time!"},
			{Character: "Yao", Content: "Rehearsal ran late. The hall is quiet now."},
			{Character: "Kit", Content: "The lanterns at the shrine are lit. Can you guess how many there are?"},
			{Character: "Orion", Content: "Jupiter and Saturn are close tonight. Look southwest after sunset.", Images: []string{"/moments/orion-sky.jpg"}},
		},
		Accounts: []AccountSpec{
			{ID: "13800138000", Coins: 1000, VIPLevel: 1, VIPDays: 30, Status: "active"},
		},
	}
}
