package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/models"
	"storefront/internal/reconcile"
	"storefront/internal/services/shopify"
)

// Installer creates, updates and deletes the shop's webhook subscriptions
// with one aliased admin mutation per call.
type Installer struct {
	graph     reconcile.Graph
	db        *gorm.DB
	publicURL string
	topics    []models.WebhookTopic
	logger    *zap.Logger
}

func NewInstaller(graph reconcile.Graph, db *gorm.DB, publicURL string, logger *zap.Logger) *Installer {
	return &Installer{
		graph:     graph,
		db:        db,
		publicURL: strings.TrimRight(publicURL, "/"),
		topics:    models.SubscribedTopics,
		logger:    logger,
	}
}

// CallbackURL is where the shop delivers topic.
func (i *Installer) CallbackURL(topic models.WebhookTopic) string {
	return i.publicURL + "/hooks/listen?hook=" + url.QueryEscape(string(topic))
}

func (i *Installer) installed(ctx context.Context) (map[models.WebhookTopic]string, error) {
	var subs []models.WebhookSubscription
	if err := i.db.WithContext(ctx).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to load webhooks: %w", err)
	}
	out := make(map[models.WebhookTopic]string, len(subs))
	for _, s := range subs {
		out[s.Topic] = s.ID
	}
	return out, nil
}

// Install subscribes every topic, updating subscriptions saved by an earlier
// install in place. Remote user errors are returned as data.
func (i *Installer) Install(ctx context.Context) (shopify.Errors, error) {
	existing, err := i.installed(ctx)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("mutation {\n")
	for _, topic := range i.topics {
		sub := fmt.Sprintf("webhookSubscription: {callbackUrl: %s, format: JSON}", quote(i.CallbackURL(topic)))
		if id, ok := existing[topic]; ok {
			fmt.Fprintf(&b, "\t%s: webhookSubscriptionUpdate(id: %s, %s) {\n", topic, quote(id), sub)
		} else {
			fmt.Fprintf(&b, "\t%s: webhookSubscriptionCreate(topic: %s, %s) {\n", topic, topic, sub)
		}
		b.WriteString("\t\twebhookSubscription { id }\n\t\tuserErrors { message field }\n\t}\n")
	}
	b.WriteString("}")

	res, err := i.graph.Admin(ctx, b.String(), nil, false)
	if err != nil {
		return nil, err
	}
	if res.HasErrors() {
		return res.Errors, nil
	}

	var errs shopify.Errors
	for _, topic := range i.topics {
		if ue := res.UserErrors(string(topic), "userErrors"); ue != nil {
			errs = append(errs, ue...)
			continue
		}
		id, _ := res.At(string(topic), "webhookSubscription", "id").(string)
		if id == "" {
			continue
		}
		sub := models.WebhookSubscription{ID: id, Topic: topic}
		err := i.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "hook"}},
			DoUpdates: clause.AssignmentColumns([]string{"id"}),
		}).Create(&sub).Error
		if err != nil {
			return errs, fmt.Errorf("failed to save webhook %s: %w", topic, err)
		}
	}

	i.logger.Info("Installed webhooks", zap.Int("topics", len(i.topics)), zap.Int("errors", len(errs)))
	return errs, nil
}

// Uninstall deletes every saved subscription.
func (i *Installer) Uninstall(ctx context.Context) (shopify.Errors, error) {
	existing, err := i.installed(ctx)
	if err != nil || len(existing) == 0 {
		return nil, err
	}

	topics := make([]string, 0, len(existing))
	for topic := range existing {
		topics = append(topics, string(topic))
	}
	sort.Strings(topics)

	var b strings.Builder
	b.WriteString("mutation {\n")
	for _, topic := range topics {
		id := existing[models.WebhookTopic(topic)]
		fmt.Fprintf(&b, "\t%s: webhookSubscriptionDelete(id: %s) {\n", topic, quote(id))
		b.WriteString("\t\tdeletedWebhookSubscriptionId\n\t\tuserErrors { message field }\n\t}\n")
	}
	b.WriteString("}")

	res, err := i.graph.Admin(ctx, b.String(), nil, false)
	if err != nil {
		return nil, err
	}
	if res.HasErrors() {
		return res.Errors, nil
	}

	var errs shopify.Errors
	for _, topic := range topics {
		id := existing[models.WebhookTopic(topic)]
		if ue := res.UserErrors(topic, "userErrors"); ue != nil {
			errs = append(errs, ue...)
			continue
		}
		if err := i.db.WithContext(ctx).Delete(&models.WebhookSubscription{ID: id}).Error; err != nil {
			return errs, fmt.Errorf("failed to forget webhook %s: %w", topic, err)
		}
	}

	i.logger.Info("Uninstalled webhooks", zap.Int("errors", len(errs)))
	return errs, nil
}

// quote renders s as a GraphQL string literal.
func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
