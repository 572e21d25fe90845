package database

import (
	"time"

	"github.com/uptrace/bun"
)

// User is the account row. Email is the unique login identifier.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Email        string    `bun:"email,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	Name         string    `bun:"name,notnull,default:''"`
	IsStaff      bool      `bun:"is_staff,notnull,default:false"`
	IsSuperuser  bool      `bun:"is_superuser,notnull,default:false"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// AuthToken binds one opaque bearer key to one user. The unique constraint
// on user_id is what makes token issuing idempotent per user.
type AuthToken struct {
	bun.BaseModel `bun:"table:auth_tokens,alias:at"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Key       string    `bun:"key,notnull,unique"`
	UserID    int64     `bun:"user_id,notnull,unique"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`

	User *User `bun:"rel:belongs-to,join:user_id=id"`
}

// Tag is a per-user recipe label. UNIQUE(user_id, name) backs the race-safe
// get-or-create used during recipe tag resolution.
type Tag struct {
	bun.BaseModel `bun:"table:tags,alias:tg"`

	ID     int64  `bun:"id,pk,autoincrement"`
	UserID int64  `bun:"user_id,notnull,unique:tags_user_id_name_key"`
	Name   string `bun:"name,notnull,unique:tags_user_id_name_key"`

	User *User `bun:"rel:belongs-to,join:user_id=id"`
}

// Recipe belongs to a user; the owner column is nullable so recipes survive
// account deletion (FK SET NULL).
type Recipe struct {
	bun.BaseModel `bun:"table:recipes,alias:r"`

	ID          int64   `bun:"id,pk,autoincrement"`
	UserID      *int64  `bun:"user_id"`
	Title       string  `bun:"title,notnull"`
	TimeMinutes int     `bun:"time_minutes,notnull"`
	Price       float64 `bun:"price,notnull,type:numeric(8,2)"`
	Description string  `bun:"description,notnull,type:text"`
	Link        string  `bun:"link,notnull,default:''"`

	Tags []*Tag `bun:"m2m:recipe_tags,join:Recipe=Tag"`
}

// RecipeTag is the recipe<->tag join table.
type RecipeTag struct {
	bun.BaseModel `bun:"table:recipe_tags,alias:rt"`

	RecipeID int64   `bun:"recipe_id,pk"`
	Recipe   *Recipe `bun:"rel:belongs-to,join:recipe_id=id"`
	TagID    int64   `bun:"tag_id,pk"`
	Tag      *Tag    `bun:"rel:belongs-to,join:tag_id=id"`
}
