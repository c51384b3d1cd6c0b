// Package seed inserts reference and demo data. Every insert is an upsert
// keyed on a natural key, so running it twice changes nothing.
package seed

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/d60-Lab/green-credits/internal/model"
	"github.com/d60-Lab/green-credits/internal/repository"
)

// Demo user IDs.
const (
	DemoUserID      = "demo-user"
	DemoReviewer1ID = "demo-reviewer-1"
	DemoReviewer2ID = "demo-reviewer-2"
	DemoAdminID     = "demo-admin"
)

// stableID derives a fixed UUID from a natural key.
func stableID(kind, key string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(kind+":"+key)).String()
}

// ActionTypes 默认行为类型目录
func ActionTypes() []*model.ActionType {
	defs := []struct {
		code, title, icon string
		base              int64
	}{
		{"BIKE_TO_CAMPUS", "Bike to Campus", "🚲", 10},
		{"PUBLIC_TRANSIT", "Public Transit", "🚌", 8},
		{"ENERGY_SCREENSHOT", "Energy Saving Screenshot", "⚡", 5},
		{"RECYCLING", "Recycling", "♻️", 6},
		{"REUSABLE_CONTAINER", "Reusable Container", "🥤", 3},
		{"SOLAR_PANEL", "Solar Panel Installation", "☀️", 50},
		{"COMPOST", "Composting", "🌱", 4},
		{"CARPOOL", "Carpool", "🚗", 7},
	}
	out := make([]*model.ActionType, len(defs))
	for i, d := range defs {
		out[i] = &model.ActionType{
			ID:          stableID("action", d.code),
			Code:        d.code,
			Title:       d.title,
			BaseCredits: d.base,
			Icon:        d.icon,
		}
	}
	return out
}

func Users() []*model.User {
	return []*model.User{
		{ID: DemoUserID, Name: "Demo Student", Email: "student@example.edu", Role: model.RoleUser},
		{ID: DemoReviewer1ID, Name: "Reviewer One", Email: "reviewer1@example.edu", Role: model.RoleReviewer},
		{ID: DemoReviewer2ID, Name: "Reviewer Two", Email: "reviewer2@example.edu", Role: model.RoleReviewer},
		{ID: DemoAdminID, Name: "Sustainability Office", Email: "admin@example.edu", Role: model.RoleAdmin},
	}
}

func Rewards() []*model.Reward {
	limited := func(n int64) *int64 { return &n }
	defs := []struct {
		title, desc, category string
		cost                  int64
		inventory             *int64
	}{
		{"Campus Cafe Coffee", "One free drink at any campus cafe", "food", 50, nil},
		{"Bike Repair Voucher", "Free tune-up at the campus bike shop", "transport", 200, limited(50)},
		{"Reusable Water Bottle", "Insulated steel bottle", "merch", 150, limited(100)},
		{"Tree Planting Donation", "We plant one tree on your behalf", "donation", 300, nil},
	}
	out := make([]*model.Reward, len(defs))
	for i, d := range defs {
		out[i] = &model.Reward{
			ID:          stableID("reward", d.title),
			Title:       d.title,
			Description: d.desc,
			Cost:        d.cost,
			Inventory:   d.inventory,
			Category:    d.category,
			Active:      true,
		}
	}
	return out
}

func Quizzes() []*model.Quiz {
	title := "Sustainability Basics"
	return []*model.Quiz{{
		ID:    stableID("quiz", title),
		Title: title,
		Questions: datatypes.NewJSONType([]model.QuizQuestion{
			{Prompt: "Which of these can usually go in the recycling bin?", Options: []string{"Greasy pizza box", "Clean aluminium can", "Plastic bag"}, CorrectIndex: 1},
			{Prompt: "What does a kWh measure?", Options: []string{"Power", "Energy", "Voltage"}, CorrectIndex: 1},
			{Prompt: "Which commute has the lowest emissions per trip?", Options: []string{"Cycling", "Driving alone", "Taxi"}, CorrectIndex: 0},
		}),
	}}
}

// Repos 写入所需的仓储
type Repos struct {
	Users       repository.UserRepository
	ActionTypes repository.ActionTypeRepository
	Rewards     repository.RewardRepository
	Quizzes     repository.QuizRepository
}

// Run seeds the catalogue, demo users, rewards and quizzes.
func Run(ctx context.Context, r Repos) error {
	for _, at := range ActionTypes() {
		if err := r.ActionTypes.Upsert(ctx, at); err != nil {
			return fmt.Errorf("seed action type %s: %w", at.Code, err)
		}
	}
	for _, u := range Users() {
		if err := r.Users.Upsert(ctx, u); err != nil {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}
	for _, rw := range Rewards() {
		if err := r.Rewards.Upsert(ctx, rw); err != nil {
			return fmt.Errorf("seed reward %s: %w", rw.Title, err)
		}
	}
	for _, q := range Quizzes() {
		if err := r.Quizzes.Upsert(ctx, q); err != nil {
			return fmt.Errorf("seed quiz %s: %w", q.Title, err)
		}
	}
	return nil
}
