package catalog

// Seed returns the catalog the service ships with. Books carry no price, so
// they are priced at zero.
func Seed() (*Store, error) {
	books := []Book{
		{ID: 1, Title: "The Hitchhiker's Guide to the Galaxy", Author: "Douglas Adams", Year: 1979, ISBN: "978-0345391803"},
		{ID: 2, Title: "Ogboju Ode Ninu Igbo Irunmole", Author: "D.O. Fagunwa", Year: 1938, ISBN: "978-9781560017"},
		{ID: 3, Title: "1984", Author: "George Orwell", Year: 1949, ISBN: "978-0451524935"},
		{ID: 4, Title: "Stay With Me", Author: "Ayọ̀bámi Adébáyọ̀", Year: 2017, ISBN: "978-1101904110"},
		{ID: 5, Title: "Ake: The Years of Childhood", Author: "Wole Soyinka", Year: 1958, ISBN: "978-0385474542"},
		{ID: 6, Title: "Pride and Prejudice", Author: "Jane Austen", Year: 1813, ISBN: "978-0141439518"},
	}
	stock := map[int]int{1: 5, 2: 3, 3: 10, 4: 2, 5: 7, 6: 10}
	return NewStore(books, stock)
}
