package concierge

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/01moynul/culinamarket/internal/models"
)

const keywordPrompt = `You translate grocery and food requests into English search keywords.
Extract only food-related words from the user's message and translate them to English.
Reply with JSON only: {"keywords": ["word1", "word2"]}.
Example: "resep ayam goreng" -> {"keywords": ["chicken", "fried", "recipe"]}.
Example: "makan malam sehat" -> {"keywords": ["dinner", "healthy", "meal"]}.`

type promptIngredient struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	ImageURL string `json:"imageUrl"`
}

type promptRecipe struct {
	ID              string             `json:"id"`
	Title           string             `json:"title"`
	PrepTimeMinutes int                `json:"prepTimeMinutes"`
	Ingredients     []promptIngredient `json:"ingredients"`
}

type promptContext struct {
	FoundRecipes  []promptRecipe     `json:"foundRecipes"`
	FoundProducts []promptIngredient `json:"foundProducts"`
}

func toPromptItem(p models.Product) promptIngredient {
	return promptIngredient{ID: p.ID, Name: p.Name, Price: p.Price, ImageURL: p.ImageURL}
}

func buildPromptContext(rc *retrieval) promptContext {
	pc := promptContext{
		FoundRecipes:  make([]promptRecipe, 0, len(rc.recipes)),
		FoundProducts: make([]promptIngredient, 0, len(rc.products)),
	}
	for _, r := range rc.recipes {
		pr := promptRecipe{ID: r.ID, Title: r.Title, PrepTimeMinutes: r.PrepTimeMinutes, Ingredients: []promptIngredient{}}
		for _, ing := range r.Ingredients {
			pr.Ingredients = append(pr.Ingredients, toPromptItem(ing.Product))
		}
		pc.FoundRecipes = append(pc.FoundRecipes, pr)
	}
	for _, p := range rc.products {
		pc.FoundProducts = append(pc.FoundProducts, toPromptItem(p))
	}
	return pc
}

func systemPrompt(intent Intent, rc *retrieval) string {
	var b strings.Builder

	b.WriteString("You are the shopping concierge of CulinaMarket, a grocery store.\n\n")
	fmt.Fprintf(&b, "QUERY TYPE: %s\n", intent)
	if intent == IntentRecipe {
		b.WriteString("The shopper wants recipes. Recommend one recipe from the context and list every one of its ingredients in action.items.\n")
	} else {
		b.WriteString("The shopper is looking for products. List the matching products from the context in action.items. Only suggest recipes if asked.\n")
	}

	b.WriteString("\nRECIPES:\n")
	if len(rc.recipes) == 0 {
		b.WriteString("No recipes found.\n")
	}
	for _, r := range rc.recipes {
		fmt.Fprintf(&b, "RECIPE %q (%d mins)\n", r.Title, r.PrepTimeMinutes)
		if len(r.Ingredients) == 0 {
			b.WriteString("  (no ingredients linked)\n")
		}
		for _, ing := range r.Ingredients {
			fmt.Fprintf(&b, "  * %s - Rp %d (ID: %s)\n", ing.Product.Name, ing.Product.Price, ing.Product.ID)
		}
	}

	b.WriteString("\nPRODUCTS:\n")
	if len(rc.products) == 0 {
		b.WriteString("No products found.\n")
	}
	for _, p := range rc.products {
		fmt.Fprintf(&b, "- %s (Rp %d, ID: %s)\n", p.Name, p.Price, p.ID)
	}

	raw, _ := json.Marshal(buildPromptContext(rc))
	b.WriteString("\nCONTEXT DATA (use these exact ids, names and prices):\n")
	b.Write(raw)

	b.WriteString(`

RULES:
- Answer in the shopper's language (Indonesian or English).
- Never invent products, ids or prices that are not in the context data.
- Reply with a single JSON object and nothing else:
  {"text": "<your answer>", "action": {"type": "add_to_cart", "items": [{"id": "...", "name": "...", "price": 0, "imageUrl": "..."}]}}
- Omit "action" when nothing in the context fits.`)

	return b.String()
}
