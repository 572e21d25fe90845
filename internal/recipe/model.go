package recipe

// Tag is a per-user label for classifying recipes.
type Tag struct {
	ID     int64
	UserID int64
	Name   string
}

// Recipe is owned by a user; the owner is a pointer because recipes outlive
// deleted accounts. Tags always belong to the same owner as the recipe.
type Recipe struct {
	ID          int64
	UserID      *int64
	Title       string
	TimeMinutes int
	Price       float64
	Description string
	Link        string
	Tags        []Tag
}
