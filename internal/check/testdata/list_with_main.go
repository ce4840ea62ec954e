package structures

type List[T comparable] struct {
	items []T
}

func main() {}
