// Package seed loads sample data for development environments: two parent
// brands with stores, customers, vehicles, visit history, segments and
// campaigns.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"crm-service/internal/model"
	"crm-service/internal/tenant"
	"crm-service/pkg/logger"
)

const seedActor = "seed"

var (
	firstNames = []string{"John", "Jane", "Michael", "Emily", "David", "Sarah", "Robert", "Lisa", "James", "Jennifer", "William", "Mary", "Richard", "Patricia", "Thomas", "Linda"}
	lastNames  = []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez", "Wilson", "Anderson", "Taylor", "Moore"}
	makes      = []string{"Toyota", "Honda", "Ford", "Chevrolet", "Nissan", "Jeep", "Subaru", "Hyundai", "Mazda"}
	carModels  = []string{"Camry", "Accord", "F-150", "Silverado", "Altima", "Wrangler", "Outback", "Elantra", "CX-5"}
	colors     = []string{"White", "Black", "Silver", "Gray", "Red", "Blue", "Green"}
	services   = []string{"Oil Change", "Tire Rotation", "Brake Service", "Engine Tune-Up", "Transmission Service", "Air Filter Replacement"}
)

// Run seeds the database when it is empty. Writes carry no tenant context,
// so the seeded parent ids on each record are preserved as-is.
func Run(db *gorm.DB) error {
	log := logger.GetLogger()

	var parentCount int64
	if err := db.Model(&model.Parent{}).Count(&parentCount).Error; err != nil {
		return err
	}
	if parentCount > 0 {
		log.Info("Database already seeded, skipping")
		return nil
	}

	log.Info("Seeding sample data")
	ctx := tenant.WithActor(context.Background(), seedActor)
	db = db.WithContext(ctx)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	return db.Transaction(func(tx *gorm.DB) error {
		greaseMonkey := model.Parent{Name: "Grease Monkey International", BrandName: "Grease Monkey", IsActive: true}
		jiffyLube := model.Parent{Name: "Jiffy Lube Franchise Group", BrandName: "Jiffy Lube", IsActive: true}
		if err := tx.Create(&greaseMonkey).Error; err != nil {
			return err
		}
		if err := tx.Create(&jiffyLube).Error; err != nil {
			return err
		}

		gmStores := []model.Store{
			store(greaseMonkey.ID, "Grease Monkey Denver Downtown", "001", "1234 Main St", "Denver", "CO", "80202"),
			store(greaseMonkey.ID, "Grease Monkey Aurora", "002", "5678 E Colfax Ave", "Aurora", "CO", "80010"),
			store(greaseMonkey.ID, "Grease Monkey Boulder", "003", "7890 Pearl St", "Boulder", "CO", "80302"),
		}
		jlStores := []model.Store{
			store(jiffyLube.ID, "Jiffy Lube Phoenix Central", "101", "2345 Central Ave", "Phoenix", "AZ", "85004"),
			store(jiffyLube.ID, "Jiffy Lube Scottsdale", "102", "6789 Scottsdale Rd", "Scottsdale", "AZ", "85251"),
			store(jiffyLube.ID, "Jiffy Lube Tempe", "103", "1234 S Mill Ave", "Tempe", "AZ", "85281"),
		}
		for i := range gmStores {
			if err := tx.Create(&gmStores[i]).Error; err != nil {
				return err
			}
		}
		for i := range jlStores {
			if err := tx.Create(&jlStores[i]).Error; err != nil {
				return err
			}
		}

		for _, brand := range []struct {
			parent model.Parent
			stores []model.Store
		}{{greaseMonkey, gmStores}, {jiffyLube, jlStores}} {
			if err := seedBrand(tx, rng, brand.parent, brand.stores); err != nil {
				return err
			}
		}

		log.Info("Sample data seeded",
			zap.String("parent_1", greaseMonkey.Name),
			zap.String("parent_2", jiffyLube.Name))
		return nil
	})
}

func seedBrand(tx *gorm.DB, rng *rand.Rand, parent model.Parent, stores []model.Store) error {
	customers, err := seedCustomers(tx, rng, parent, stores, 40)
	if err != nil {
		return err
	}

	segments := []model.Segment{
		segment(parent.ID, "High Value Customers", "Customers with total spend over $1000"),
		segment(parent.ID, "At-Risk Customers", "Customers who haven't visited in 90+ days"),
		segment(parent.ID, "New Customers", "Customers who joined in the last 30 days"),
	}
	for i := range segments {
		if err := tx.Create(&segments[i]).Error; err != nil {
			return err
		}
	}

	campaigns := []model.Campaign{
		{
			TenantEntity: model.TenantEntity{ParentID: parent.ID},
			SegmentID:    &segments[0].ID,
			Name:         "Spring Oil Change Special",
			Description:  "$10 off any oil change service",
			Status:       model.CampaignActive,
			Channel:      model.ChannelEmail,
			StartDate:    daysAgo(30), EndDate: daysAhead(30),
			Budget: 500, Spent: 250, TargetAudience: 1000,
			Sent: 800, Delivered: 750, Opened: 300, Clicked: 100,
			Redeemed: 50, Revenue: 2500, ROAS: 10,
		},
		{
			TenantEntity: model.TenantEntity{ParentID: parent.ID},
			SegmentID:    &segments[1].ID,
			Name:         "Win-Back Campaign",
			Description:  "Special offer for customers we haven't seen in a while",
			Status:       model.CampaignActive,
			Channel:      model.ChannelDirectMail,
			StartDate:    daysAgo(15), EndDate: daysAhead(45),
			Budget: 1000, Spent: 400, TargetAudience: 500,
			Sent: 500, Delivered: 480,
			Redeemed: 25, Revenue: 1500, ROAS: 3.75,
		},
	}
	for i := range campaigns {
		if err := tx.Create(&campaigns[i]).Error; err != nil {
			return err
		}
	}

	// Put a handful of customers into the high-value segment.
	members := 0
	for i := range customers {
		if customers[i].TotalSpent < 1000 || members >= 10 {
			continue
		}
		membership := model.CustomerSegment{
			TenantEntity: model.TenantEntity{ParentID: parent.ID},
			CustomerID:   customers[i].ID,
			SegmentID:    segments[0].ID,
			AddedAt:      time.Now().UTC(),
		}
		if err := tx.Create(&membership).Error; err != nil {
			return err
		}
		members++
	}
	segments[0].CustomerCount = members
	return tx.Save(&segments[0]).Error
}

func seedCustomers(tx *gorm.DB, rng *rand.Rand, parent model.Parent, stores []model.Store, count int) ([]model.Customer, error) {
	stages := []model.CustomerLifecycleStage{
		model.LifecycleNew, model.LifecycleActive, model.LifecycleActive,
		model.LifecycleActive, model.LifecycleAtRisk, model.LifecycleLapsed,
	}

	customers := make([]model.Customer, 0, count)
	for i := 0; i < count; i++ {
		first := firstNames[rng.Intn(len(firstNames))]
		last := lastNames[rng.Intn(len(lastNames))]
		lastVisit := time.Now().UTC().AddDate(0, 0, -rng.Intn(180)-1)
		firstVisit := lastVisit.AddDate(0, 0, -rng.Intn(300))
		totalVisits := rng.Intn(19) + 1
		totalSpent := float64(rng.Intn(4900) + 100)

		customer := model.Customer{
			TenantEntity:       model.TenantEntity{ParentID: parent.ID},
			FirstName:          first,
			LastName:           last,
			Email:              strings.ToLower(fmt.Sprintf("%s.%s%d@example.com", first, last, rng.Intn(999)+1)),
			Phone:              fmt.Sprintf("(%d) %d-%d", rng.Intn(799)+200, rng.Intn(799)+200, rng.Intn(9000)+1000),
			City:               stores[0].City,
			State:              stores[0].State,
			LifecycleStage:     stages[rng.Intn(len(stages))],
			FirstVisitDate:     &firstVisit,
			LastVisitDate:      &lastVisit,
			TotalVisits:        totalVisits,
			TotalSpent:         totalSpent,
			AverageOrderValue:  totalSpent / float64(totalVisits),
			DaysSinceLastVisit: int(time.Since(lastVisit).Hours() / 24),
			EmailOptIn:         rng.Intn(100) > 20,
			SmsOptIn:           rng.Intn(100) > 50,
			DirectMailOptIn:    true,
			IsActive:           true,
		}
		if err := tx.Create(&customer).Error; err != nil {
			return nil, err
		}

		if err := seedVehiclesAndVisits(tx, rng, &customer, stores); err != nil {
			return nil, err
		}
		customers = append(customers, customer)
	}
	return customers, nil
}

func seedVehiclesAndVisits(tx *gorm.DB, rng *rand.Rand, customer *model.Customer, stores []model.Store) error {
	vehicleCount := rng.Intn(2) + 1
	vehicles := make([]model.Vehicle, 0, vehicleCount)
	for i := 0; i < vehicleCount; i++ {
		year := rng.Intn(14) + 2010
		mileage := rng.Intn(145000) + 5000
		vehicle := model.Vehicle{
			TenantEntity: model.TenantEntity{ParentID: customer.ParentID},
			CustomerID:   customer.ID,
			Make:         makes[rng.Intn(len(makes))],
			Model:        carModels[rng.Intn(len(carModels))],
			Year:         &year,
			Color:        colors[rng.Intn(len(colors))],
			VIN:          fmt.Sprintf("1HGBH41JXMN%06d", rng.Intn(900000)+100000),
			Mileage:      &mileage,
			IsPrimary:    i == 0,
		}
		if err := tx.Create(&vehicle).Error; err != nil {
			return err
		}
		vehicles = append(vehicles, vehicle)
	}

	visitCount := rng.Intn(customer.TotalVisits) + 1
	for i := 0; i < visitCount; i++ {
		vehicle := vehicles[rng.Intn(len(vehicles))]
		total := float64(rng.Intn(450) + 50)
		discount := float64(rng.Intn(50))
		visit := model.Visit{
			TenantEntity:      model.TenantEntity{ParentID: customer.ParentID},
			CustomerID:        customer.ID,
			StoreID:           stores[rng.Intn(len(stores))].ID,
			VehicleID:         &vehicle.ID,
			InvoiceNumber:     fmt.Sprintf("INV-%05d", rng.Intn(90000)+10000),
			VisitDate:         time.Now().UTC().AddDate(0, 0, -rng.Intn(365)-1),
			TotalAmount:       total,
			DiscountAmount:    discount,
			NetAmount:         total - discount,
			ServicesPerformed: services[rng.Intn(len(services))],
		}
		if err := tx.Create(&visit).Error; err != nil {
			return err
		}
	}
	return nil
}

func store(parentID uuid.UUID, name, number, address, city, state, zip string) model.Store {
	return model.Store{
		TenantEntity: model.TenantEntity{ParentID: parentID},
		Name:         name,
		StoreNumber:  number,
		Address:      address,
		City:         city,
		State:        state,
		ZipCode:      zip,
		Email:        fmt.Sprintf("store%s@example.com", number),
		IsActive:     true,
	}
}

func segment(parentID uuid.UUID, name, description string) model.Segment {
	return model.Segment{
		TenantEntity: model.TenantEntity{ParentID: parentID},
		Name:         name,
		Description:  description,
		Type:         model.SegmentDynamic,
		IsActive:     true,
	}
}

func daysAgo(n int) *time.Time {
	t := time.Now().UTC().AddDate(0, 0, -n)
	return &t
}

func daysAhead(n int) *time.Time {
	t := time.Now().UTC().AddDate(0, 0, n)
	return &t
}
