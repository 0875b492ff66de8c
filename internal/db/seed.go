package db

import (
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"equipment-tracker-backend/internal/model"
)

// seedActor is the placeholder identity recorded for seeded history rows.
var seedActor = uuid.MustParse("00000000-0000-0000-0000-000000000001")

type seedEntry struct {
	id       int
	name     string
	state    model.EquipmentState
	hoursAgo int
}

var seedEquipment = []seedEntry{
	// Moulding machines
	{1, "Moulding 1", model.StateGreen, 2},
	{2, "Moulding 2", model.StateGreen, 3},
	{3, "Moulding 3", model.StateYellow, 1},
	{4, "Moulding 4", model.StateRed, 4},

	// Roughing machines
	{5, "Roughing 1", model.StateRed, 5},
	{6, "Roughing 2", model.StateGreen, 2},
	{7, "Roughing 3", model.StateYellow, 3},

	// Finishing machines
	{8, "Finishing 1", model.StateYellow, 1},
	{9, "Finishing 2", model.StateGreen, 2},
	{10, "Finishing 3", model.StateGreen, 4},

	// Assembly lines
	{11, "Assembly Line A", model.StateGreen, 3},
	{12, "Assembly Line B", model.StateYellow, 2},
	{13, "Assembly Line C", model.StateRed, 1},

	// Painting stations
	{14, "Painter 1", model.StateGreen, 2},
	{15, "Painter 2", model.StateGreen, 3},
	{16, "Painter 3", model.StateRed, 1},

	// Quality control
	{17, "QC Station 1", model.StateGreen, 4},
	{18, "QC Station 2", model.StateYellow, 2},

	// Packaging
	{19, "Packaging Line 1", model.StateGreen, 1},
	{20, "Packaging Line 2", model.StateGreen, 3},
	{21, "Packaging Line 3", model.StateYellow, 2},
}

// Seed populates the shop floor layout on first start. The seed is skipped
// when the equipment table already has rows, so restarts are safe.
func Seed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.Equipment{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	log.Printf("Seeding %d equipment records...", len(seedEquipment))

	now := time.Now().UTC()
	equipment := make([]model.Equipment, 0, len(seedEquipment))
	changes := make([]model.StateChange, 0, len(seedEquipment))
	for _, e := range seedEquipment {
		equipment = append(equipment, model.Equipment{
			ID:           e.id,
			Name:         e.name,
			CurrentState: e.state,
		})
		changes = append(changes, model.StateChange{
			ID:          uuid.New(),
			EquipmentID: e.id,
			State:       e.state,
			Timestamp:   now.Add(-time.Duration(e.hoursAgo) * time.Hour),
			ChangedByID: seedActor,
		})
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&equipment).Error; err != nil {
			return err
		}
		return tx.Create(&changes).Error
	})
}
