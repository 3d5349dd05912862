package service

import (
	"github.com/jmoiron/sqlx"

	"snaps_engagement/internal/queue"
	"snaps_engagement/internal/repository"
)

// Services is the full set of engagement services over one database.
type Services struct {
	Toggles       *ToggleService
	Lifecycle     *LifecycleService
	Comments      *CommentService
	Posts         *PostService
	Users         *UserService
	Collections   *CollectionService
	Reconcile     *ReconcileService
	Notifications *NotificationService
}

// NewServices wires every service. publisher, pusher and sink may be nil;
// the features they back are then disabled.
func NewServices(db *sqlx.DB, publisher queue.Publisher, pusher Pusher, sink ReportSink) *Services {
	edgeRepo := repository.NewEdgeRepository()
	counterRepo := repository.NewCounterRepository()
	userRepo := repository.NewUserRepository()
	postRepo := repository.NewPostRepository()
	commentRepo := repository.NewCommentRepository()
	collectionRepo := repository.NewCollectionRepository()
	notifRepo := repository.NewNotificationRepository(db)
	tokenRepo := repository.NewDeviceTokenRepository(db)

	counters := NewCounterMaintainer(counterRepo)

	return &Services{
		Toggles:       NewToggleService(db, edgeRepo, userRepo, postRepo, commentRepo, counters, publisher),
		Lifecycle:     NewLifecycleService(db, postRepo, commentRepo, collectionRepo, counters),
		Comments:      NewCommentService(commentRepo, postRepo, userRepo, edgeRepo, counters, db, publisher),
		Posts:         NewPostService(postRepo, userRepo, edgeRepo, collectionRepo, counters, db),
		Users:         NewUserService(userRepo, collectionRepo, edgeRepo, db),
		Collections:   NewCollectionService(collectionRepo, postRepo, userRepo, edgeRepo, counters, db),
		Reconcile:     NewReconcileService(db, edgeRepo, counterRepo, userRepo, postRepo, commentRepo, sink),
		Notifications: NewNotificationService(notifRepo, tokenRepo, userRepo, db, pusher),
	}
}
