package emission

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ppiankov/carbontally/internal/model"
)

// printer formats kilogram amounts with English thousand separators.
//
//nolint:gochecknoglobals // Global printer is idiomatic for x/text/message usage.
var printer = message.NewPrinter(language.English)

// UnknownMessage is shown when nothing in the text could be recognized
const UnknownMessage = "🤔 Could not determine activity. Try phrases like 'drove 5 km', 'cycled 3 km', or 'used 2 kWh electricity'."

// FormatKg formats a non-negative CO2 amount with two decimals.
// Example: FormatKg(1234.5) returns "1,234.50".
func FormatKg(kg float64) string {
	return printer.Sprintf("%.2f", math.Abs(kg))
}

// FormatQuantity prints a quantity with at most three decimals and no
// trailing zeros. Example: FormatQuantity(0.25) returns "0.25".
func FormatQuantity(q float64) string {
	return strconv.FormatFloat(math.Round(q*1000)/1000, 'f', -1, 64)
}

// Describe builds the human-readable explanation for one activity
func Describe(act Activity, n Normalized, co2 float64) string {
	qty := FormatQuantity(n.Quantity)
	kg := FormatKg(co2)
	name := displayName(act.Key)

	switch act.Category {
	case model.CategoryTransport:
		if act.AvoidsCar {
			return fmt.Sprintf("%s %s %s %s saved %s kg CO₂", transportIcon(act.Key), title(name), qty, n.Unit, kg)
		}
		return fmt.Sprintf("%s %s %s %s emitted %s kg CO₂", transportIcon(act.Key), title(name), qty, n.Unit, kg)

	case model.CategoryEnergy:
		return fmt.Sprintf("⚡ %s use %s %s emitted %s kg CO₂", title(name), qty, n.Unit, kg)

	case model.CategoryFood:
		return fmt.Sprintf("🍽️ %s %s of %s emitted %s kg CO₂", qty, n.Unit, name, kg)

	case model.CategoryWaste:
		return fmt.Sprintf("🗑️ Disposing %s %s of %s emitted %s kg CO₂", qty, n.Unit, name, kg)
	}

	return UnknownMessage
}

func transportIcon(key string) string {
	switch key {
	case "cycle":
		return "🚴"
	case "walk":
		return "🚶"
	case "bus":
		return "🚌"
	case "train":
		return "🚆"
	case "flight":
		return "✈️"
	case "motorbike":
		return "🏍️"
	default:
		return "🚗"
	}
}

// displayName turns an activity key into words ("natural_gas" -> "natural gas")
func displayName(key string) string {
	return strings.ReplaceAll(key, "_", " ")
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
