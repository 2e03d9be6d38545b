package estimator

import "fmt"

// FormatPrice переводит цену в лакхах в строку для пользователя:
// до 100 - в лакхах, от 100 - в кроров.
func FormatPrice(priceLakhs float64) string {
	if priceLakhs >= 100 {
		return fmt.Sprintf("%.2f Crore", priceLakhs/100)
	}
	return fmt.Sprintf("%.2f Lakhs", priceLakhs)
}
