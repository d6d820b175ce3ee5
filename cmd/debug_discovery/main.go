package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"

	"infra-inventory/core/config"
	"infra-inventory/core/database"
	"infra-inventory/core/reconcile"
	"infra-inventory/feature/vmsync"
	"infra-inventory/feature/vmsync/discovery"
	"infra-inventory/feature/vmsync/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dumps one discovery batch grouped by parent server and shows which VMs a
// sync would create or update. Nothing is written.
func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal(err)
	}
	ctx := context.Background()

	// Database is optional here: without it only the configured endpoint works
	// and every VM is reported as new.
	var db *gorm.DB
	if conn, err := database.Connect(cfg.Database); err != nil {
		fmt.Printf("Database unavailable, comparing against an empty inventory: %v\n", err)
	} else {
		db = conn
	}

	endpoint, err := vmsync.NewEndpointResolver(cfg.Discovery, cfg.Sync, db).Resolve(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("=== Endpoint: %s (%s, %s) ===\n", endpoint.Name, endpoint.Platform, endpoint.URL)

	result, err := discovery.NewClient(cfg.Discovery, zap.NewNop()).Discover(ctx, endpoint)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Discovered %d VMs (reported count %d)\n", len(result.Records), result.RecordCount)

	byParent := map[string][]models.DiscoveredVM{}
	for _, vm := range result.Records {
		byParent[vm.ParentID] = append(byParent[vm.ParentID], vm)
	}
	parents := make([]string, 0, len(byParent))
	for p := range byParent {
		parents = append(parents, p)
	}
	sort.Strings(parents)

	var store *vmsync.GormStore
	if db != nil {
		store = vmsync.NewGormStore(db)
	}
	adapter := vmsync.Adapter{}

	for _, parent := range parents {
		vms := byParent[parent]
		label := parent
		if label == "" {
			label = "(missing parent)"
		}
		fmt.Printf("\n--- %s: %d VMs ---\n", label, len(vms))

		for _, vm := range vms {
			action := "create"
			key := adapter.Key(vm)
			switch {
			case !key.Valid():
				action = "fail: " + reconcile.ErrMissingKey.Error()
			case store != nil:
				existing, found, err := store.FindByNaturalKey(ctx, key)
				if err != nil {
					action = "fail: " + err.Error()
				} else if found && adapter.HasChanged(existing, vm) {
					action = fmt.Sprintf("update (priority %d)", existing.Priority)
				} else if found {
					action = fmt.Sprintf("skip (priority %d)", existing.Priority)
				}
			}
			fmt.Printf("  %-20s %-30s %-12s %s\n", vm.ExternalID, adapter.DisplayName(vm), vm.PowerState, action)
		}
	}

	if len(os.Args) > 1 && os.Args[1] == "--json" {
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println("\n=== Raw batch ===")
		fmt.Println(string(data))
	}
}
