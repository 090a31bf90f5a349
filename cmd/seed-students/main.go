package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/stemsi/lms-backend/internal/config"
	"github.com/stemsi/lms-backend/internal/database"
	"github.com/stemsi/lms-backend/internal/logger"
	"github.com/stemsi/lms-backend/internal/model"
	"github.com/stemsi/lms-backend/internal/repository"
	"github.com/stemsi/lms-backend/internal/service"
)

var names = []string{
	"Budi Santoso", "Siti Aminah", "Andi Pratama", "Rina Wati", "Joko Susilo",
	"Ayu Lestari", "Dodi Kusuma", "Eka Putri", "Fahri Hamzah", "Gita Savitri",
	"Hendra Gunawan", "Ika Sari", "Lukman Hakim", "Maya Septiana", "Nanda Pratama",
	"Oki Setiana", "Putri Dian", "Rafi Ahmad", "Siska Saraswati", "Toni Setiawan",
	"Wahyu Hidayat", "Yudi Pratama", "Zaki Anwar", "Citra Kirana", "Dimas Anggara",
}

func main() {
	count := flag.Int("n", 25, "Number of students to create")
	password := flag.String("password", "student123", "Password for every seeded account")
	domain := flag.String("domain", "students.lms.test", "Email domain")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	authService := service.NewAuthService(cfg, userRepo, nil)
	userService := service.NewUserService(userRepo, authService, log)

	fmt.Printf("=== Seeding %d Students ===\n", *count)

	created, skipped := 0, 0
	for i := 0; i < *count; i++ {
		name := names[i%len(names)]
		if i >= len(names) {
			name = fmt.Sprintf("%s %d", name, i/len(names)+1)
		}
		email := fmt.Sprintf("%s.%03d@%s", strings.ToLower(strings.Fields(name)[0]), i+1, *domain)

		_, err := userService.Create(ctx, &model.CreateUserRequest{
			Name:     name,
			Email:    email,
			Password: *password,
			Role:     model.RoleStudent,
		})
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			skipped++
		case err != nil:
			fmt.Printf("Error creating student %s (%s): %v\n", name, email, err)
		default:
			created++
			if created%10 == 0 {
				fmt.Printf("Created %d students...\n", created)
			}
		}
	}

	fmt.Printf("\nSeed completed! Created %d, skipped %d existing, of %d requested.\n", created, skipped, *count)
}
