package structures

type List struct {
	items []string
}

func (l *List) Add(item string) {
	l.items = append(l.items, item)
}
