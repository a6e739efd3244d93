package dashboard

import (
	"fmt"
	"time"

	"rebirth/internal/usecase"
)

// 一覧の1行
type Row struct {
	Date       string
	ID         string
	Addressee  string
	Summary    string
	Quantity   int64
	TotalPrice int64
}

func BuildRow(o usecase.OrderOutput) Row {
	summary, qty := Summarize(o.OrderItems)
	return Row{
		Date:       FormatDate(o.CreatedAt),
		ID:         o.ID,
		Addressee:  o.Address.Addressee,
		Summary:    summary,
		Quantity:   qty,
		TotalPrice: o.TotalPrice,
	}
}

// "2006-01-02 15:04:05"（秒未満は落とす）
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// 先頭の商品名＋オプション、2件以上なら「외 N개」。数量は合計。
func Summarize(items []usecase.OrderItemOutput) (string, int64) {
	var qty int64
	for _, it := range items {
		qty += it.Quantity
	}
	if len(items) == 0 {
		return "-", 0
	}

	first := items[0]
	//商品が消えていれば注文時点の名前
	name := first.Name
	if first.Item != nil {
		name = first.Item.Name
	}
	if name == "" {
		name = "(삭제된 상품)"
	}
	text := fmt.Sprintf("%s [%s / %s]", name, first.Option.Color, first.Option.Size)
	if len(items) > 1 {
		text = fmt.Sprintf("%s 외 %d개", text, len(items)-1)
	}
	return text, qty
}
