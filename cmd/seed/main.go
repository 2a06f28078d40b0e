package main

import (
	"context"
	"fmt"
	"time"

	"github.com/scholaris/scholaris-backend/internal/config"
	"github.com/scholaris/scholaris-backend/internal/database"
	"github.com/scholaris/scholaris-backend/internal/logger"
)

// Seeds a small demo dataset: two departments, teachers, courses, and forty
// students, all idempotent via ON CONFLICT so re-running is safe.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	fmt.Println("=== Seeding Demo Data ===")

	departments := []struct {
		Code string
		Name string
	}{
		{"SCI", "Natural Sciences"},
		{"HUM", "Humanities"},
	}
	for _, d := range departments {
		if _, err := pool.Exec(ctx,
			`INSERT INTO departments (code, name) VALUES ($1, $2)
			 ON CONFLICT (code) DO NOTHING`, d.Code, d.Name); err != nil {
			log.Fatal().Err(err).Str("code", d.Code).Msg("Failed to seed department")
		}
	}
	fmt.Printf("Seeded %d departments.\n", len(departments))

	teachers := []struct {
		Name  string
		Email string
		Dept  string
	}{
		{"Dewi Anggraini", "dewi.anggraini@scholaris.test", "SCI"},
		{"Bambang Wijaya", "bambang.wijaya@scholaris.test", "SCI"},
		{"Clara Hutapea", "clara.hutapea@scholaris.test", "HUM"},
		{"Rudi Hartono", "rudi.hartono@scholaris.test", "HUM"},
	}
	for _, t := range teachers {
		if _, err := pool.Exec(ctx,
			`INSERT INTO teachers (name, email, department_id)
			 VALUES ($1, $2, (SELECT id FROM departments WHERE code = $3))
			 ON CONFLICT (email) DO NOTHING`, t.Name, t.Email, t.Dept); err != nil {
			log.Fatal().Err(err).Str("email", t.Email).Msg("Failed to seed teacher")
		}
	}
	fmt.Printf("Seeded %d teachers.\n", len(teachers))

	courses := []struct {
		Code     string
		Name     string
		Credits  int
		Semester string
	}{
		{"MATH101", "Calculus I", 4, "1"},
		{"PHYS101", "Mechanics", 4, "1"},
		{"CHEM101", "General Chemistry", 3, "1"},
		{"HIST101", "World History", 3, "1"},
		{"LIT201", "Comparative Literature", 3, "2"},
		{"BIO201", "Cell Biology", 4, "2"},
	}
	for _, c := range courses {
		if _, err := pool.Exec(ctx,
			`INSERT INTO courses (code, name, credits, semester) VALUES ($1, $2, $3, $4)
			 ON CONFLICT (code) DO NOTHING`, c.Code, c.Name, c.Credits, c.Semester); err != nil {
			log.Fatal().Err(err).Str("code", c.Code).Msg("Failed to seed course")
		}
	}
	fmt.Printf("Seeded %d courses.\n", len(courses))

	names := []string{
		"Budi Santoso", "Siti Aminah", "Andi Pratama", "Rina Wati", "Joko Susilo",
		"Ayu Lestari", "Dodi Kusuma", "Eka Putri", "Fahri Hamzah", "Gita Savitri",
		"Hendra Gunawan", "Ika Sari", "Jamal Mirdad", "Kiki Fatmala", "Lukman Hakim",
		"Maya Septiana", "Nanda Pratama", "Oki Setiana", "Putri Dian", "Qori Maharani",
		"Rafi Ahmad", "Siska Saraswati", "Toni Setiawan", "Umi Kalsum", "Vina Panduwinata",
		"Wahyu Hidayat", "Xena Maharani", "Yudi Pratama", "Zaki Anwar", "Alifia Zahra",
		"Bagas Saputra", "Citra Kirana", "Dimas Anggara", "Elisa Novita", "Fikri Maulana",
		"Gali Rakasiwi", "Hani Hanifah", "Iqbal Ramadhan", "Jasmine Azzahra", "Kevin Sanjaya",
	}

	successCount := 0
	for i, name := range names {
		dept := "SCI"
		if i%2 == 1 {
			dept = "HUM"
		}
		email := fmt.Sprintf("student%02d@scholaris.test", i+1)
		tag, err := pool.Exec(ctx,
			`INSERT INTO students (name, email, status, department_id)
			 VALUES ($1, $2, 'active', (SELECT id FROM departments WHERE code = $3))
			 ON CONFLICT (email) DO NOTHING`, name, email, dept)
		if err != nil {
			log.Fatal().Err(err).Str("email", email).Msg("Failed to seed student")
		}
		successCount += int(tag.RowsAffected())
	}
	fmt.Printf("Seeded %d new students (%d total in list).\n", successCount, len(names))

	fmt.Println("\nDone.")
}
