package db

type Order struct {
	column *ColumnHolder
	asc    bool
}

func NewOrder(column *ColumnHolder) *Order {
	return &Order{
		column: column,
		asc:    true,
	}
}

func (o *Order) GetHolder() *ColumnHolder {
	return o.column
}

func (o *Order) Asc(asc bool) *Order {
	o.asc = asc
	return o
}

func (o *Order) IsAsc() bool {
	return o.asc
}
