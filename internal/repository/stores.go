package repository

import "gorm.io/gorm"

// Stores bundles the six repositories over one handle, usually the
// transaction of a single engine operation.
type Stores struct {
	Users     UserRepository
	Posts     PostRepository
	Comments  CommentRepository
	Reactions ReactionRepository
	Media     MediaRepository
	Favorites FavoriteRepository
}

func NewStores(db *gorm.DB) *Stores {
	return &Stores{
		Users:     NewUserRepository(db),
		Posts:     NewPostRepository(db),
		Comments:  NewCommentRepository(db),
		Reactions: NewReactionRepository(db),
		Media:     NewMediaRepository(db),
		Favorites: NewFavoriteRepository(db),
	}
}
