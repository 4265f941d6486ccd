// Package concierge answers free-text shopping questions from the catalog.
package concierge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/01moynul/culinamarket/internal/ai"
	"github.com/01moynul/culinamarket/internal/models"
	"go.uber.org/zap"
)

const (
	ActionAddToCart = "add_to_cart"

	suggestionRecipeLimit = 10
	recipeSearchLimit     = 5
	productSearchLimit    = 10
	relatedRecipeLimit    = 5
)

const notFoundText = "I apologize, but I couldn't find that specific item in our inventory right now. " +
	"However, feel free to browse our wide selection of fresh ingredients like Pasta or Salmon!"

// Catalog is the product and recipe search the dispatcher depends on.
type Catalog interface {
	SearchProducts(ctx context.Context, terms []string, limit int) ([]models.Product, error)
	SearchRecipes(ctx context.Context, terms []string, limit int) ([]models.Recipe, error)
	RecentRecipes(ctx context.Context, limit int) ([]models.Recipe, error)
	RecipesUsingProducts(ctx context.Context, productIDs []string, limit int) ([]models.Recipe, error)
	RecipeIngredients(ctx context.Context, recipeIDs []string) (map[string][]models.RecipeIngredient, error)
}

// HistoryMessage is a prior chat turn; Role is "user" or "ai".
type HistoryMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type ActionItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	ImageURL string `json:"imageUrl,omitempty"`
}

type Action struct {
	Type  string       `json:"type"`
	Items []ActionItem `json:"items"`
}

type Response struct {
	Role   string  `json:"role"`
	Text   string  `json:"text"`
	Action *Action `json:"action,omitempty"`
}

type Dispatcher struct {
	catalog Catalog
	llm     ai.Completer
	dict    Dictionary
	rules   []Rule
	log     *zap.Logger
}

type Option func(*Dispatcher)

func WithDictionary(d Dictionary) Option {
	return func(disp *Dispatcher) { disp.dict = d }
}

func WithRules(rules []Rule) Option {
	return func(disp *Dispatcher) { disp.rules = rules }
}

// New builds a dispatcher. llm may be nil, in which case every reply uses
// the deterministic fallback.
func New(catalog Catalog, llm ai.Completer, log *zap.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		catalog: catalog,
		llm:     llm,
		dict:    DefaultDictionary,
		rules:   IntentRules,
		log:     log,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type retrieval struct {
	recipes  []models.Recipe
	products []models.Product
}

// Reply answers message. It never fails: every collaborator error degrades
// to the next fallback, ending with a fixed "not found" answer.
func (d *Dispatcher) Reply(ctx context.Context, message string, history []HistoryMessage) Response {
	query := strings.ToLower(strings.TrimSpace(message))

	terms := d.ExtractTerms(ctx, message)
	intent := Classify(query, d.rules)
	rc := d.retrieve(ctx, query, terms, intent)

	if d.llm != nil {
		resp, err := d.answer(ctx, message, history, intent, rc)
		if err == nil {
			return resp
		}
		d.log.Warn("concierge: completion failed, using fallback", zap.Error(err))
	}
	return fallback(query, rc)
}

// ExtractTerms turns an utterance into search terms: dictionary hits, else
// LLM keywords, else the lower-cased utterance itself.
func (d *Dispatcher) ExtractTerms(ctx context.Context, utterance string) []string {
	query := strings.ToLower(strings.TrimSpace(utterance))

	if terms := d.dict.Lookup(query); len(terms) > 0 {
		return terms
	}

	if d.llm != nil {
		terms, err := d.translate(ctx, utterance)
		if err != nil {
			d.log.Debug("concierge: keyword extraction failed", zap.Error(err))
		} else if len(terms) > 0 {
			return terms
		}
	}

	if query == "" {
		return nil
	}
	return []string{query}
}

func (d *Dispatcher) translate(ctx context.Context, utterance string) ([]string, error) {
	out, err := d.llm.Complete(ctx, []ai.Message{
		{Role: ai.RoleSystem, Content: keywordPrompt},
		{Role: ai.RoleUser, Content: utterance},
	}, true)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Keywords []string `json:"keywords"`
		Items    []string `json:"items"`
	}
	if err := json.Unmarshal([]byte(ai.StripCodeFence(out)), &parsed); err != nil {
		return nil, fmt.Errorf("decode keywords: %w", err)
	}

	keywords := parsed.Keywords
	if len(keywords) == 0 {
		keywords = parsed.Items
	}

	terms := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			terms = append(terms, k)
		}
	}
	return terms, nil
}

func (d *Dispatcher) retrieve(ctx context.Context, query string, terms []string, intent Intent) *retrieval {
	rc := &retrieval{}
	var direct []models.Recipe
	var err error

	// 1. Recipes named by the query, or general ideas
	if intent == IntentRecipe && WantsSuggestions(query) {
		direct, err = d.catalog.RecentRecipes(ctx, suggestionRecipeLimit)
	} else {
		direct, err = d.catalog.SearchRecipes(ctx, terms, recipeSearchLimit)
		if err == nil && len(direct) == 0 && intent == IntentRecipe {
			direct, err = d.catalog.RecentRecipes(ctx, suggestionRecipeLimit)
		}
	}
	if err != nil {
		d.log.Warn("concierge: recipe search failed", zap.Error(err))
	}

	// 2. Products by name or category
	rc.products, err = d.catalog.SearchProducts(ctx, terms, productSearchLimit)
	if err != nil {
		d.log.Warn("concierge: product search failed", zap.Error(err))
	}

	// 3. Recipes that use any matched product
	var related []models.Recipe
	if len(rc.products) > 0 {
		ids := make([]string, len(rc.products))
		for i, p := range rc.products {
			ids[i] = p.ID
		}
		related, err = d.catalog.RecipesUsingProducts(ctx, ids, relatedRecipeLimit)
		if err != nil {
			d.log.Warn("concierge: related recipe search failed", zap.Error(err))
		}
	}

	rc.recipes = mergeRecipes(direct, related)
	if len(rc.recipes) == 0 {
		return rc
	}

	// 4. Ingredient lists for every recipe in the context
	ids := make([]string, len(rc.recipes))
	for i, r := range rc.recipes {
		ids[i] = r.ID
	}
	ingredients, err := d.catalog.RecipeIngredients(ctx, ids)
	if err != nil {
		d.log.Warn("concierge: ingredient lookup failed", zap.Error(err))
		return rc
	}
	for i := range rc.recipes {
		rc.recipes[i].Ingredients = ingredients[rc.recipes[i].ID]
	}
	return rc
}

// mergeRecipes concatenates lists, keeping the first occurrence of each ID.
func mergeRecipes(lists ...[]models.Recipe) []models.Recipe {
	var out []models.Recipe
	seen := make(map[string]bool)
	for _, list := range lists {
		for _, r := range list {
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			out = append(out, r)
		}
	}
	return out
}

func (d *Dispatcher) answer(ctx context.Context, message string, history []HistoryMessage, intent Intent, rc *retrieval) (Response, error) {
	msgs := make([]ai.Message, 0, len(history)+2)
	msgs = append(msgs, ai.Message{Role: ai.RoleSystem, Content: systemPrompt(intent, rc)})
	for _, h := range history {
		role := ai.RoleUser
		if h.Role == "ai" || h.Role == ai.RoleAssistant {
			role = ai.RoleAssistant
		}
		msgs = append(msgs, ai.Message{Role: role, Content: h.Text})
	}
	msgs = append(msgs, ai.Message{Role: ai.RoleUser, Content: message})

	out, err := d.llm.Complete(ctx, msgs, true)
	if err != nil {
		return Response{}, err
	}

	var envelope struct {
		Text   string `json:"text"`
		Action *struct {
			Type  string `json:"type"`
			Items []struct {
				ID string `json:"id"`
			} `json:"items"`
		} `json:"action"`
	}
	if err := json.Unmarshal([]byte(ai.StripCodeFence(out)), &envelope); err != nil {
		return Response{}, fmt.Errorf("decode completion: %w", err)
	}
	if strings.TrimSpace(envelope.Text) == "" {
		return Response{}, fmt.Errorf("completion has no text")
	}

	resp := Response{Role: "ai", Text: envelope.Text}
	if envelope.Action == nil || len(envelope.Action.Items) == 0 {
		return resp, nil
	}

	// Only ids present in the context reach the client, with catalog values.
	known := contextItems(rc)
	var items []ActionItem
	seen := make(map[string]bool)
	for _, it := range envelope.Action.Items {
		item, ok := known[it.ID]
		if !ok {
			d.log.Debug("concierge: dropping unknown action item", zap.String("id", it.ID))
			continue
		}
		if seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		items = append(items, item)
	}
	if len(items) > 0 {
		resp.Action = &Action{Type: ActionAddToCart, Items: items}
	}
	return resp, nil
}

func contextItems(rc *retrieval) map[string]ActionItem {
	known := make(map[string]ActionItem)
	for _, r := range rc.recipes {
		for _, ing := range r.Ingredients {
			known[ing.Product.ID] = toActionItem(ing.Product)
		}
	}
	for _, p := range rc.products {
		known[p.ID] = toActionItem(p)
	}
	return known
}

func toActionItem(p models.Product) ActionItem {
	return ActionItem{ID: p.ID, Name: p.Name, Price: p.Price, ImageURL: p.ImageURL}
}

func fallback(query string, rc *retrieval) Response {
	if len(rc.recipes) > 0 {
		r := rc.recipes[0]
		items := make([]ActionItem, 0, len(r.Ingredients))
		for _, ing := range r.Ingredients {
			items = append(items, toActionItem(ing.Product))
		}
		return Response{
			Role:   "ai",
			Text:   fmt.Sprintf("I found a recipe: %q. It takes %d mins. Added ingredients to your recommended cart.", r.Title, r.PrepTimeMinutes),
			Action: &Action{Type: ActionAddToCart, Items: items},
		}
	}

	if len(rc.products) > 0 {
		items := make([]ActionItem, 0, len(rc.products))
		for _, p := range rc.products {
			items = append(items, toActionItem(p))
		}
		return Response{
			Role:   "ai",
			Text:   fmt.Sprintf("I found these items matching %q.", query),
			Action: &Action{Type: ActionAddToCart, Items: items},
		}
	}

	return Response{Role: "ai", Text: notFoundText}
}
