package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/mother-community/config"
	"github.com/oksasatya/mother-community/internal/domain/entity"
	repo "github.com/oksasatya/mother-community/internal/domain/repository"
	pginfra "github.com/oksasatya/mother-community/internal/infrastructure/postgres"
	"github.com/oksasatya/mother-community/pkg/helpers"
)

const demoPassword = "password123"

type demoMember struct {
	email    string
	name     string
	birth    string
	city     string
	lat, lon float64
	children []entity.Child
	admin    bool
}

var members = []demoMember{
	{
		email: "admin@mother-community.test", name: "Admin Team", birth: "1985-02-11",
		city: "Berlin", lat: 52.5200, lon: 13.4050, admin: true,
	},
	{
		email: "anna@mother-community.test", name: "Anna Schmidt", birth: "1990-07-15",
		city: "Berlin", lat: 52.5200, lon: 13.4050,
		children: []entity.Child{{Age: 2, Gender: entity.GenderFemale}, {Age: 5, Gender: entity.GenderMale}},
	},
	{
		email: "julia@mother-community.test", name: "Julia Becker", birth: "1988-03-02",
		city: "Potsdam", lat: 52.3906, lon: 13.0645,
		children: []entity.Child{{Age: 1, Gender: entity.GenderMale}},
	},
	{
		email: "sara@mother-community.test", name: "Sara Yilmaz", birth: "1994-11-20",
		city: "Hamburg", lat: 53.5511, lon: 9.9937,
		children: []entity.Child{{Age: 4, Gender: entity.GenderUnspecified}},
	},
	{
		email: "lena@mother-community.test", name: "Lena Wagner", birth: "1992-05-30",
		city: "München", lat: 48.1351, lon: 11.5820,
		children: []entity.Child{{Age: 7, Gender: entity.GenderFemale}, {Age: 9, Gender: entity.GenderFemale}},
	},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	users := pginfra.NewUserRepository(pool)
	profiles := pginfra.NewProfileRepository(pool)

	hash, err := helpers.HashPassword(demoPassword)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	for _, m := range members {
		u, err := users.GetByEmail(ctx, m.email)
		if errors.Is(err, repo.ErrNotFound) {
			u = &entity.User{Email: m.email, Password: hash}
			err = users.Create(ctx, u)
		}
		if err != nil {
			log.Fatalf("failed to seed user %s: %v", m.email, err)
		}

		p, err := profiles.Ensure(ctx, u.ID, u.Email)
		if err != nil {
			log.Fatalf("failed to ensure profile %s: %v", m.email, err)
		}
		birth, _ := time.Parse("2006-01-02", m.birth)
		lat, lon := m.lat, m.lon
		p.FullName = entity.StrPtr(m.name)
		p.Birthdate = &birth
		p.City = entity.StrPtr(m.city)
		p.Latitude, p.Longitude = &lat, &lon
		if err := profiles.Update(ctx, p); err != nil {
			log.Fatalf("failed to update profile %s: %v", m.email, err)
		}
		if err := profiles.ReplaceChildren(ctx, u.ID, m.children); err != nil {
			log.Fatalf("failed to seed children %s: %v", m.email, err)
		}

		if m.admin {
			if err := users.GrantRole(ctx, u.ID, entity.RoleAdmin); err != nil {
				log.Fatalf("failed to assign admin role: %v", err)
			}
		}
		logger.WithFields(logrus.Fields{"id": u.ID, "email": m.email, "admin": m.admin}).Info("seeded member")
	}
	logger.Infof("seeded %d members, password=%s", len(members), demoPassword)
}
