// pkg/rules/seed.go
package rules

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// SeedFromFile loads rules from a YAML file and upserts them into the store.
// Dev/bootstrap convenience; entries without an id get one assigned.
//
// Format:
//
//	rules:
//	  - shop_id: 123
//	    campaign_id: 456
//	    kind: manual
//	    hour_start: 8
//	    hour_end: 20
//	    budget: 50000
//	    active: true
func SeedFromFile(ctx context.Context, store Store, path string, log *zap.SugaredLogger) error {
	if path == "" {
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc struct {
		Rules []Rule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	for _, r := range doc.Rules {
		if r.ID == "" {
			r.ID = seedID(r)
		}
		if err := r.Validate(); err != nil {
			log.Warnw("seed rule skipped", "shop", r.ShopID, "campaign", r.CampaignID, "err", err)
			continue
		}
		if _, err := store.Get(ctx, r.ID); err == nil {
			if err := store.Update(ctx, r); err != nil {
				return err
			}
			continue
		}
		if err := store.Create(ctx, r); err != nil {
			return err
		}
	}
	log.Infow("rule seed loaded", "path", path, "count", len(doc.Rules))
	return nil
}

// seedID derives a stable id from the rule's natural key so reloading the
// same file updates an id-less entry instead of duplicating it.
func seedID(r Rule) string {
	key := fmt.Sprintf("pacer/rule/%d/%d/%s/%d-%d", r.ShopID, r.CampaignID, r.Kind, r.HourStart, r.HourEnd)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}
