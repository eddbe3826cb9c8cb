// Command seed resets the development database and loads sample users,
// posts and comments. Not for production use.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"syscall"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/burblyhq/burbly/internal/flagx"
	"github.com/burblyhq/burbly/internal/server/config"
	"github.com/burblyhq/burbly/internal/server/repositories/repomanager"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const defaultPassword = "password123"

func seedPassword() (string, error) {
	// Server config flags share the command line; take only ours.
	args := flagx.FilterArgs(os.Args[1:], []string{"-password"})

	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	password := fs.String("password", "", "password for the seeded accounts (prompted when on a terminal)")
	if err := fs.Parse(args); err != nil {
		return "", err
	}

	if *password != "" {
		return *password, nil
	}
	if term.IsTerminal(int(syscall.Stdin)) {
		fmt.Print("Password for seeded accounts (empty for default): ")
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return "", err
		}
		if len(raw) > 0 {
			return string(raw), nil
		}
	}
	return defaultPassword, nil
}

func createUser(ctx context.Context, db *sql.DB, email, hash, role string) (string, error) {
	var id string
	err := db.QueryRowContext(ctx,
		`INSERT INTO users (email, password_hash, is_verified, is_active, role)
		 VALUES ($1, $2, true, true, $3) RETURNING id`,
		email, hash, role).Scan(&id)
	return id, err
}

func createPost(ctx context.Context, db *sql.DB, authorID, title, content, tags string, likes, views int64) (string, error) {
	var id string
	err := db.QueryRowContext(ctx,
		`INSERT INTO posts (author_id, title, content, tags, is_published, likes, views)
		 VALUES ($1, $2, $3, $4, true, $5, $6) RETURNING id`,
		authorID, title, content, tags, likes, views).Scan(&id)
	return id, err
}

func createComment(ctx context.Context, db *sql.DB, postID, authorID, content string, likes int64) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO comments (post_id, author_id, content, likes) VALUES ($1, $2, $3, $4)`,
		postID, authorID, content, likes)
	return err
}

func run(ctx context.Context) error {
	password, err := seedPassword()
	if err != nil {
		return err
	}

	cfg := config.LoadConfig()
	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer db.Close()

	if err := repomanager.NewPostgresRepositoryManager().RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	log.Println("Starting database seed...")

	// Children first, the schema cascades handle the rest.
	for _, table := range []string{"verification_tokens", "otps", "comments", "posts", "accounts", "users"} {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	log.Println("Creating users...")
	user1, err := createUser(ctx, db, "user1@example.com", string(hash), "user")
	if err != nil {
		return err
	}
	user2, err := createUser(ctx, db, "user2@example.com", string(hash), "user")
	if err != nil {
		return err
	}
	admin, err := createUser(ctx, db, "admin@example.com", string(hash), "admin")
	if err != nil {
		return err
	}

	log.Println("Creating sample posts...")
	post1, err := createPost(ctx, db, user1, "Welcome to Burbly!",
		"This is our first post. Welcome to the Burbly community!",
		"welcome,community,first-post", 5, 25)
	if err != nil {
		return err
	}
	post2, err := createPost(ctx, db, user2, "How to Create Effective Flashcards",
		"Creating effective flashcards is an art. Here are some tips: 1. Keep it simple 2. Use images when possible 3. Review regularly 4. Space out your learning.",
		"tips,flashcards,learning", 12, 89)
	if err != nil {
		return err
	}
	post3, err := createPost(ctx, db, admin, "Study Techniques That Work",
		"Research shows that spaced repetition and active recall are the most effective study techniques. Try incorporating these into your flashcard routine.",
		"study-techniques,spaced-repetition,research", 8, 156)
	if err != nil {
		return err
	}

	log.Println("Creating sample comments...")
	if err := createComment(ctx, db, post1, user2, "Great post! Looking forward to more content.", 2); err != nil {
		return err
	}
	if err := createComment(ctx, db, post2, user1, "Thanks for sharing these tips!", 1); err != nil {
		return err
	}
	if err := createComment(ctx, db, post3, user1, "I've been using spaced repetition for months and it really works!", 3); err != nil {
		return err
	}

	log.Println("Created users:")
	log.Println("- user1@example.com")
	log.Println("- user2@example.com")
	log.Println("- admin@example.com")
	log.Println("Created 3 sample posts with comments")
	log.Println("Database seeded successfully")
	return nil
}

func main() {
	if err := run(context.Background()); err != nil {
		log.Printf("seed error: %v", err)
		os.Exit(1)
	}
}
