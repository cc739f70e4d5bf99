package seeds

import (
	"context"
	"log"
	"time"

	"github.com/Xeladesign/shok/internal/database"
	"github.com/Xeladesign/shok/internal/models"
	"github.com/Xeladesign/shok/internal/services"
	"gorm.io/gorm"
)

type line struct {
	from, to int
	text     string
	ago      time.Duration
}

var demoLines = []line{
	{1, 0, "Hi! Is the blue vase still available?", 50 * time.Minute},
	{0, 1, "It is, I can ship it tomorrow.", 45 * time.Minute},
	{1, 0, "Great, ordering now.", 40 * time.Minute},
	{2, 0, "Loved your last drop.", 10 * time.Minute},
}

// Seed fills an empty database with users, a product, a few conversations
// and the notifications they would have produced. Rows go through the
// services so notifications are created the same way as in production.
func Seed(ctx context.Context, db *gorm.DB) error {
	users, err := SeedUsers(db)
	if err != nil {
		return err
	}

	var existing int64
	if err := db.Model(&models.Message{}).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		log.Println("Messages already present, skipping conversations")
		return nil
	}

	product := models.Product{ID: "demo-blue-vase", Title: "Blue vase", AuthorID: users[0].ID}
	if err := db.Where("id = ?", product.ID).FirstOrCreate(&product).Error; err != nil {
		return err
	}

	messages := database.NewMessageRepo(db, nil)
	social := database.NewSocialRepo(db)
	notifier := services.NewNotifier(database.NewNotificationRepo(db, nil), nil, services.NotifierConfig{})
	socialSvc := services.NewSocial(social, notifier, services.DefaultPolicy())

	log.Println("Seeding conversations...")
	now := time.Now().UTC()
	for _, l := range demoLines {
		sender := users[l.from].Identity()
		msg := models.Message{
			SenderID:   sender.ID,
			ReceiverID: users[l.to].ID,
			Content:    l.text,
			CreatedAt:  now.Add(-l.ago),
		}
		if err := messages.Insert(ctx, &msg); err != nil {
			return err
		}
		notifier.Notify(ctx, msg.ReceiverID, sender, models.NotificationTypeMessage, nil, msg.Content)
	}

	if _, err := socialSvc.Follow(ctx, users[1].Identity(), users[0].ID); err != nil {
		return err
	}
	if _, err := socialSvc.Comment(ctx, users[2].Identity(), product.ID, "The glaze on this is unreal."); err != nil {
		return err
	}
	log.Println("Seed complete")
	return nil
}
