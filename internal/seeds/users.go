package seeds

import (
	"log"

	"github.com/Xeladesign/shok/internal/models"
	"gorm.io/gorm"
)

// DemoUsers are the accounts the seeder creates. Ids are fixed so tokens
// minted for them keep working across reseeds.
var DemoUsers = []models.User{
	{ID: "3f1c2a64-0d7e-4d8e-9d55-0b7a7c1e0a01", Name: "Ada Okafor", Email: "ada@shok.dev", IsCreator: true, Bio: "Ceramics and small batch glazes."},
	{ID: "3f1c2a64-0d7e-4d8e-9d55-0b7a7c1e0a02", Name: "Bruno Silva", Email: "bruno@shok.dev", Bio: "Collector."},
	{ID: "3f1c2a64-0d7e-4d8e-9d55-0b7a7c1e0a03", Name: "Chen Wei", Email: "chen@shok.dev", IsCreator: true},
}

// SeedUsers creates the demo users that do not exist yet.
func SeedUsers(db *gorm.DB) ([]models.User, error) {
	log.Println("Seeding demo users...")
	users := make([]models.User, 0, len(DemoUsers))
	for _, u := range DemoUsers {
		user := u
		if err := db.Where("id = ?", user.ID).FirstOrCreate(&user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	log.Printf("   %d users ready", len(users))
	return users, nil
}
