package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"poll-service/internal/config"
	"poll-service/internal/database"
	"poll-service/internal/models"
	"poll-service/internal/repositories/postgres"
	"poll-service/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	slog.Info("Starting database seeding...")

	// Connect to database
	db, err := database.NewPostgresConnection(cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	slog.Info("Database connection established")

	ctx := context.Background()

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	pollRepo := postgres.NewPollRepository(db)
	voteRepo := postgres.NewVoteRepository(db)
	commentRepo := postgres.NewCommentRepository(db)

	// Initialize services. The seeder votes and comments through the
	// services so counters and threading behave exactly as in production.
	pollService := services.NewPollService(pollRepo, nil)
	voteService := services.NewVoteService(pollRepo, voteRepo, nil, nil, cfg.Vote.IPHashSalt)
	commentService := services.NewCommentService(commentRepo, pollRepo)

	// Seed initial users
	slog.Info("Creating initial users...")

	// Create admin user
	adminPassword, _ := bcrypt.GenerateFromPassword([]byte("123456"), bcrypt.DefaultCost)
	adminUser := &models.User{
		Username: "admin",
		Email:    "admin@polly.app",
		Password: string(adminPassword),
		Role:     models.RoleAdmin,
	}

	if err := userRepo.Create(ctx, adminUser); err != nil {
		slog.Warn("Admin user might already exist", "error", err)
	} else {
		slog.Info("Created admin user", "id", adminUser.ID)
	}

	// Create test users
	testUsers := []struct {
		username string
		email    string
		password string
	}{
		{"alice", "alice@polly.app", "123456"},
		{"bob", "bob@polly.app", "123456"},
		{"charlie", "charlie@polly.app", "123456"},
	}

	for _, userData := range testUsers {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte(userData.password), bcrypt.DefaultCost)
		user := &models.User{
			Username: userData.username,
			Email:    userData.email,
			Password: string(hashedPassword),
			Role:     models.RoleUser,
		}

		if err := userRepo.Create(ctx, user); err != nil {
			slog.Warn("User might already exist", "username", userData.username, "error", err)
		} else {
			slog.Info("Created user", "username", userData.username, "id", user.ID)
		}
	}

	// Look the users up again so reruns resolve existing rows
	admin, err := userRepo.FindByEmail(ctx, "admin@polly.app")
	if err != nil {
		log.Fatal("Could not load admin user:", err)
	}
	alice, _ := userRepo.FindByEmail(ctx, "alice@polly.app")
	bob, _ := userRepo.FindByEmail(ctx, "bob@polly.app")
	charlie, _ := userRepo.FindByEmail(ctx, "charlie@polly.app")

	// Seed demo polls
	slog.Info("Creating demo polls...")

	nextWeek := time.Now().Add(7 * 24 * time.Hour)

	languagePoll, err := pollService.Create(ctx, alice.ID, &models.CreatePollRequest{
		Title:       "Which backend language should we adopt next?",
		Description: "We are planning the next service rewrite and want your input.",
		Category:    "engineering",
		Options:     []string{"Go", "Rust", "Elixir", "Zig"},
		ExpiresAt:   &nextWeek,
	})
	if err != nil {
		slog.Warn("Language poll might already exist", "error", err)
	} else {
		slog.Info("Created poll", "id", languagePoll.ID, "title", languagePoll.Title)
	}

	syncPoll, err := pollService.Create(ctx, bob.ID, &models.CreatePollRequest{
		Title:         "Best time for the weekly sync?",
		Description:   "Pick every slot that works for you.",
		Category:      "team",
		Options:       []string{"Monday 10:00", "Wednesday 14:00", "Friday 09:00"},
		AllowMultiple: true,
	})
	if err != nil {
		slog.Warn("Sync poll might already exist", "error", err)
	} else {
		slog.Info("Created poll", "id", syncPoll.ID, "title", syncPoll.Title)
	}

	lunchPoll, err := pollService.Create(ctx, charlie.ID, &models.CreatePollRequest{
		Title:          "Where should the team lunch be?",
		Category:       "social",
		Options:        []string{"Ramen place", "Taco truck", "Pizza corner"},
		AllowAnonymous: true,
	})
	if err != nil {
		slog.Warn("Lunch poll might already exist", "error", err)
	} else {
		slog.Info("Created poll", "id", lunchPoll.ID, "title", lunchPoll.Title)
	}

	retroPoll, err := pollService.Create(ctx, admin.ID, &models.CreatePollRequest{
		Title:     "Retro format for next quarter?",
		Category:  "team",
		Options:   []string{"Start-stop-continue", "4Ls", "Sailboat"},
		IsPrivate: true,
	})
	if err != nil {
		slog.Warn("Retro poll might already exist", "error", err)
	} else {
		slog.Info("Created private poll", "id", retroPoll.ID, "title", retroPoll.Title)
	}

	// Seed sample ballots and comments
	if languagePoll != nil {
		slog.Info("Casting sample votes...")
		seedVotes(ctx, voteService, languagePoll, syncPoll, admin, alice, bob, charlie)

		slog.Info("Creating sample comments...")
		seedComments(ctx, commentService, languagePoll.ID, alice, bob)
	}

	slog.Info("Database seeding completed successfully!")
}

// seedVotes casts a handful of ballots so fresh installs have non-zero
// results to look at.
func seedVotes(ctx context.Context, voteService *services.VoteService, languagePoll, syncPoll *models.PollResponse, admin, alice, bob, charlie *models.User) {
	castFor := func(user *models.User, poll *models.PollResponse, optionIdx ...int) {
		if poll == nil || user == nil {
			return
		}
		optionIDs := make([]string, len(optionIdx))
		for i, idx := range optionIdx {
			if idx >= len(poll.Options) {
				return
			}
			optionIDs[i] = models.FormatID(poll.Options[idx].ID)
		}
		_, err := voteService.Cast(ctx, poll.ID, &user.ID, false, "", &models.CastVoteRequest{OptionIDs: optionIDs})
		if err != nil {
			slog.Warn("Ballot might already exist", "poll", poll.ID, "user", user.Username, "error", err)
		}
	}

	castFor(alice, languagePoll, 0)
	castFor(bob, languagePoll, 1)
	castFor(charlie, languagePoll, 0)
	castFor(admin, languagePoll, 2)
	castFor(admin, syncPoll, 0, 2)
	castFor(alice, syncPoll, 1)
}

func seedComments(ctx context.Context, commentService *services.CommentService, pollID uint, alice, bob *models.User) {
	if alice == nil || bob == nil {
		return
	}

	root, err := commentService.Create(ctx, pollID, alice.ID, &models.CreateCommentRequest{
		Content: "Go's tooling alone makes this an easy call for me.",
	})
	if err != nil {
		slog.Warn("Failed to create comment", "error", err)
		return
	}

	if _, err := commentService.Create(ctx, pollID, bob.ID, &models.CreateCommentRequest{
		Content:  "Fair, but the borrow checker catches bugs the linters never will.",
		ParentID: &root.ID,
	}); err != nil {
		slog.Warn("Failed to create reply", "error", err)
	}
}
