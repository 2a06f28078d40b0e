package main

import (
	"context"
	"fmt"

	"github.com/scholaris/scholaris-backend/internal/config"
	"github.com/scholaris/scholaris-backend/internal/database"
	"github.com/scholaris/scholaris-backend/internal/logger"
)

// The sweep repairs enrollment drift in bulk: every (student, course) pair
// implied by class membership and class-course attachment gets an enrollment
// row. It also reports students holding more than one active class, which
// should never happen and needs manual resolution.
func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	fmt.Println("=== Enrollment Reconciliation Sweep ===")

	// 1. Backfill enrollments implied by roster membership.
	tag, err := pool.Exec(ctx, `
		INSERT INTO enrollments (student_id, course_id)
		SELECT DISTINCT cs.student_id, cc.course_id
		FROM class_students cs
		JOIN class_courses cc ON cc.class_id = cs.class_id
		ON CONFLICT (student_id, course_id) DO NOTHING`)
	if err != nil {
		log.Fatal().Err(err).Msg("Enrollment backfill failed")
	}
	fmt.Printf("Backfilled %d missing enrollment rows.\n", tag.RowsAffected())

	// 2. Report invariant violations: students in more than one active class.
	rows, err := pool.Query(ctx, `
		SELECT cs.student_id, COUNT(*) AS n
		FROM class_students cs
		JOIN classes c ON c.id = cs.class_id
		WHERE c.is_active
		  AND c.start_date <= CURRENT_DATE
		  AND c.end_date >= CURRENT_DATE
		GROUP BY cs.student_id
		HAVING COUNT(*) > 1`)
	if err != nil {
		log.Fatal().Err(err).Msg("Consistency check failed")
	}
	defer rows.Close()

	violations := 0
	for rows.Next() {
		var studentID, n int
		if err := rows.Scan(&studentID, &n); err != nil {
			log.Fatal().Err(err).Msg("Failed to scan violation row")
		}
		fmt.Printf("VIOLATION: student %d belongs to %d active classes\n", studentID, n)
		violations++
	}
	if err := rows.Err(); err != nil {
		log.Fatal().Err(err).Msg("Error iterating over violations")
	}

	if violations == 0 {
		fmt.Println("No active-class violations found.")
	} else {
		fmt.Printf("\nFound %d students violating the one-active-class rule. Resolve manually.\n", violations)
	}
}
