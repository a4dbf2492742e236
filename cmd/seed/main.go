package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vetcal/scheduling-service/internal/db"
	"github.com/vetcal/scheduling-service/internal/localtime"
)

// Seeds a handful of practices with vets, owners, and two weeks of weekday
// availability so the API has something to offer out of the box.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	timezones := []string{"America/Los_Angeles", "America/Denver", "America/New_York"}

	for _, tz := range timezones {
		practiceID, err := seedPractice(context.Background(), pool, tz)
		if err != nil {
			log.Fatalf("seed practice: %v", err)
		}
		vetIDs, err := seedVets(context.Background(), pool, practiceID, 4)
		if err != nil {
			log.Fatalf("seed vets: %v", err)
		}
		if err := seedOwners(context.Background(), pool, practiceID, 40); err != nil {
			log.Fatalf("seed owners: %v", err)
		}
		if err := seedAvailability(context.Background(), pool, practiceID, vetIDs, tz, 14); err != nil {
			log.Fatalf("seed availability: %v", err)
		}
	}

	log.Println("seed complete")
}

func seedPractice(ctx context.Context, pool *pgxpool.Pool, tz string) (uuid.UUID, error) {
	id := uuid.New()
	name := fmt.Sprintf("%s Veterinary Clinic", gofakeit.City())

	_, err := pool.Exec(ctx, `
		INSERT INTO practices (id, name, timezone)
		VALUES ($1, $2, $3)
	`, id, name, tz)
	if err != nil {
		return uuid.Nil, err
	}
	log.Printf("seeded practice %q in %s", name, tz)
	return id, nil
}

func seedVets(ctx context.Context, pool *pgxpool.Pool, practiceID uuid.UUID, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d vets", count)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		name := fmt.Sprintf("Dr. %s %s", gofakeit.FirstName(), gofakeit.LastName())

		_, err := pool.Exec(ctx, `
			INSERT INTO vets (id, practice_id, name, active)
			VALUES ($1, $2, $3, true)
		`, id, practiceID, name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func seedOwners(ctx context.Context, pool *pgxpool.Pool, practiceID uuid.UUID, count int) error {
	log.Printf("seeding %d owners", count)

	for i := 0; i < count; i++ {
		_, err := pool.Exec(ctx, `
			INSERT INTO owners (id, practice_id, name, phone)
			VALUES ($1, $2, $3, $4)
		`, uuid.New(), practiceID, gofakeit.Name(), gofakeit.Phone())
		if err != nil {
			return err
		}
	}
	return nil
}

// seedAvailability creates a 09:00-17:00 local block per vet per weekday,
// converted to UTC instants the way production intake does.
func seedAvailability(ctx context.Context, pool *pgxpool.Pool, practiceID uuid.UUID, vetIDs []uuid.UUID, tz string, days int) error {
	loc, err := localtime.Location(tz)
	if err != nil {
		return err
	}

	today := time.Now().In(loc)
	created := 0
	for d := 1; d <= days; d++ {
		day := today.AddDate(0, 0, d)
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		date := day.Format(localtime.DateLayout)

		for _, vetID := range vetIDs {
			startAt, err := localtime.ToUTC(date, "09:00", tz)
			if err != nil {
				return err
			}
			endAt, err := localtime.ToUTC(date, "17:00", tz)
			if err != nil {
				return err
			}

			_, err = pool.Exec(ctx, `
				INSERT INTO availability_windows (id, practice_id, vet_id, start_at, end_at, kind, active)
				VALUES ($1, $2, $3, $4, $5, 'available', true)
			`, uuid.New(), practiceID, vetID, startAt, endAt)
			if err != nil {
				return err
			}
			created++
		}
	}
	log.Printf("seeded %d availability windows", created)
	return nil
}
