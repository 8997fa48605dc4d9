// Command seed fills the leads table with random demo data and prints a
// development bearer token for the demo user.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"leaddesk/config"
	"leaddesk/models"
	"leaddesk/utils"
)

var firstNames = []string{
	"John", "Jane", "Michael", "Emily", "David", "Sarah", "Robert", "Jessica",
	"James", "Lauren", "William", "Amanda", "Richard", "Sophie", "Joseph", "Maria",
	"Charles", "Elizabeth", "Christopher", "Jennifer", "Thomas", "Linda", "Daniel",
	"Barbara", "Matthew", "Mary", "Anthony", "Susan", "Mark", "Dorothy", "Donald",
}

var lastNames = []string{
	"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis",
	"Rodriguez", "Martinez", "Hernandez", "Lopez", "Gonzalez", "Wilson", "Anderson",
	"Thomas", "Taylor", "Moore", "Jackson", "Martin", "Lee", "Perez", "Thompson",
	"White", "Harris", "Sanchez", "Clark", "Ramirez", "Lewis", "Robinson",
}

var companies = []string{
	"Acme Corp", "TechFlow Inc", "Global Solutions", "Innovate Labs", "Summit Enterprises",
	"Apex Digital", "Horizon Tech", "Velocity Systems", "Prime Consulting", "Elite Services",
	"NextGen Industries", "Dynamic Solutions", "QuantumLeap Corp", "Stellar Analytics", "Fusion Tech",
	"Aurora Systems", "Zenith Partners", "Momentum Technologies", "Catalyst Group", "Vertex Solutions",
}

func pick[T any](r *rand.Rand, from []T) T {
	return from[r.Intn(len(from))]
}

// randomLead draws one lead from the demo pools.
func randomLead(r *rand.Rand) models.Lead {
	firstName := pick(r, firstNames)
	lastName := pick(r, lastNames)
	source := pick(r, models.Sources)
	value := float64(r.Intn(100000) + 1000)

	return models.Lead{
		FirstName: firstName,
		LastName:  lastName,
		Email:     fmt.Sprintf("%s.%s%d@example.com", strings.ToLower(firstName), strings.ToLower(lastName), r.Intn(1000)),
		Phone:     fmt.Sprintf("+1%d", r.Int63n(9000000000)+1000000000),
		Company:   pick(r, companies),
		Stage:     pick(r, models.Stages),
		Status:    pick(r, models.Statuses),
		Source:    source,
		Value:     value,
		Notes:     fmt.Sprintf("Lead from %s. Value: $%.0f", source, value),
	}
}

// seed optionally clears the table, then inserts count random leads.
func seed(ctx context.Context, db *gorm.DB, r *rand.Rand, count int, wipe bool) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if wipe {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Lead{}).Error; err != nil {
				return fmt.Errorf("clear leads: %w", err)
			}
		}
		leads := make([]models.Lead, 0, count)
		for i := 0; i < count; i++ {
			leads = append(leads, randomLead(r))
		}
		if len(leads) == 0 {
			return nil
		}
		return tx.CreateInBatches(&leads, 100).Error
	})
}

func main() {
	count := flag.Int("count", 500, "number of leads to generate")
	keep := flag.Bool("keep", false, "keep existing leads instead of clearing the table")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	logger := utils.NewLogger(cfg.LogLevel, cfg.Environment)

	db, err := config.ConnectDB(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	if err := seed(ctx, db, r, *count, !*keep); err != nil {
		logger.Fatalf("Error seeding database: %v", err)
	}

	summary, err := models.ComputeLeadAnalytics(ctx, db)
	if err != nil {
		logger.Fatalf("Error reading summary: %v", err)
	}
	logger.WithFields(logrus.Fields{
		"total":     summary.TotalLeads,
		"converted": summary.ConvertedLeads,
		"active":    summary.ActiveLeads,
	}).Infof("Successfully seeded %d leads", *count)

	token, err := utils.GenerateAccessToken(cfg.JWTSecret, "demo", "demo", 24*time.Hour)
	if err != nil {
		logger.Fatalf("Error signing demo token: %v", err)
	}
	fmt.Printf("Demo bearer token (24h):\n%s\n", token)
}
