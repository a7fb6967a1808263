package seed

import (
	"context"
	"fmt"
	"sort"
	"time"
)

var (
	segments       = []string{"Retail", "Wholesale", "VIP"}
	segmentWeights = []float64{0.7, 0.2, 0.1}

	regions       = []string{"North America", "Europe", "Asia", "South America", "Africa"}
	regionWeights = []float64{0.4, 0.3, 0.2, 0.07, 0.03}
	regionTax     = map[string]float64{"North America": 1, "Europe": 1.2, "Asia": 0.9, "South America": 0.85, "Africa": 0.8}

	genders       = []string{"Male", "Female", "Non-binary"}
	genderWeights = []float64{0.48, 0.48, 0.04}

	contactMethods = []string{"Email", "Phone", "SMS"}
	contactWeights = []float64{0.6, 0.25, 0.15}

	seasons       = []string{"Holiday", "Summer", "Back to School", "None"}
	seasonWeights = []float64{0.35, 0.15, 0.1, 0.4}

	purchaseFrequencies = map[string][]string{
		"Retail":    {"Monthly", "Quarterly", "Annually"},
		"Wholesale": {"Weekly", "Monthly"},
		"VIP":       {"Weekly", "Monthly"},
	}

	departments       = []string{"Sales", "Operations", "Customer Service", "IT", "HR", "Finance"}
	departmentWeights = []float64{0.3, 0.2, 0.2, 0.15, 0.1, 0.05}
	shifts            = []string{"Morning", "Afternoon", "Night"}
	shiftWeights      = []float64{0.5, 0.35, 0.15}

	orgLevels = []struct {
		titles     []string
		ratio      float64
		baseSalary float64
	}{
		{[]string{"CEO", "President"}, 0.02, 250000},
		{[]string{"VP", "Director"}, 0.08, 160000},
		{[]string{"Senior Manager", "Regional Manager"}, 0.15, 110000},
		{[]string{"Manager", "Team Lead"}, 0.25, 80000},
		{[]string{"Senior Associate", "Specialist"}, 0.25, 60000},
		{[]string{"Associate", "Representative"}, 0.25, 42000},
	}

	categoryTree = []struct {
		name     string
		children []string
	}{
		{"Fiction", []string{"Mystery", "Science Fiction", "Romance", "Fantasy", "Literary Fiction"}},
		{"Non-Fiction", []string{"Biography", "History", "Science", "Self-Help", "Business"}},
		{"Children", []string{"Picture Books", "Middle Grade", "Young Adult"}},
		{"Academic", []string{"Textbooks", "Research Papers", "Reference"}},
		{"Special Interest", []string{"Cooking", "Travel", "Art", "Religion"}},
	}

	bookFormats       = []string{"Paperback", "Hardcover", "E-book", "Audiobook"}
	bookFormatWeights = []float64{0.45, 0.25, 0.2, 0.1}
	formatPriceFactor = map[string]float64{"Paperback": 1, "Hardcover": 1.5, "E-book": 0.6, "Audiobook": 1.2}
	languages         = []string{"English", "Spanish", "French", "German", "Japanese"}
	languageWeights   = []float64{0.8, 0.07, 0.05, 0.05, 0.03}
	priceChangeReason = []string{"Promotion", "Supplier Cost Change", "Demand Adjustment", "Seasonal Pricing"}

	bundlePatterns = [][]string{
		{"Science Fiction", "Fantasy"},
		{"Textbooks", "Reference"},
		{"Self-Help", "Business"},
		{"Picture Books", "Middle Grade"},
	}

	orderStatuses         = []string{"Pending", "Shipped", "Delivered", "Canceled", "Returned"}
	orderStatusWeights    = []float64{0.1, 0.2, 0.6, 0.07, 0.03}
	shippingMethods       = []string{"Standard", "Expedited", "International"}
	shippingMethodWeights = []float64{0.7, 0.2, 0.1}
	paymentMethods        = []string{"Credit Card", "PayPal", "Gift Card"}
	paymentMethodWeights  = []float64{0.65, 0.3, 0.05}
	orderNotes            = []string{"Gift wrap requested", "Leave at front door", "Call before delivery", "Deliver after 5pm"}

	serviceAreas        = regions
	serviceAreaWeights  = regionWeights
	costModels          = []string{"Weight-based", "Distance-based", "Flat-rate"}
	costModelWeights    = []float64{0.5, 0.3, 0.2}
	costModelMultiplier = map[string]float64{"Weight-based": 1.2, "Distance-based": 1.1, "Flat-rate": 1}
)

type interactionKind struct {
	name            string
	weight          float64
	needsOrder      bool
	priority        string
	minScore        int
	maxScore        int
	minResolveDays  int
	maxResolveDays  int
	noteTemplates   []string
	templateDetails []string
}

var (
	returnReasons   = []string{"Wrong size/fit", "Damaged in shipping", "Not as described", "Changed mind", "Defective product"}
	complaintIssues = []string{"delivery time", "product quality", "customer service", "billing", "website functionality"}

	interactionKinds = []interactionKind{
		{name: "Order Status Inquiry", weight: 0.25, needsOrder: true, priority: "Normal", minScore: 3, maxScore: 5, minResolveDays: 0, maxResolveDays: 2,
			noteTemplates: []string{
				"Customer inquired about delivery timeline for order #%s",
				"Provided tracking information for order #%s",
				"Updated customer on shipping status of order #%s",
			}},
		{name: "Return Request", weight: 0.15, needsOrder: true, priority: "High", minScore: 2, maxScore: 4, minResolveDays: 1, maxResolveDays: 5,
			noteTemplates: []string{
				"Customer requesting return for order #%[1]s. Reason: %[2]s",
				"Processed return authorization for order #%[1]s",
				"Explained return policy for items in order #%[1]s",
			}, templateDetails: returnReasons},
		{name: "Product Information", weight: 0.15, priority: "Low", minScore: 3, maxScore: 5, minResolveDays: 0, maxResolveDays: 1},
		{name: "Technical Support", weight: 0.10, priority: "Normal", minScore: 2, maxScore: 5, minResolveDays: 1, maxResolveDays: 3},
		{name: "Complaint", weight: 0.10, needsOrder: true, priority: "High", minScore: 1, maxScore: 3, minResolveDays: 2, maxResolveDays: 7,
			noteTemplates: []string{
				"Customer expressed dissatisfaction with %[2]s in order #%[1]s",
				"Addressing customer concerns regarding order #%[1]s",
				"Escalated complaint about order #%[1]s to supervisor",
			}, templateDetails: complaintIssues},
		{name: "Billing Issue", weight: 0.10, needsOrder: true, priority: "High", minScore: 2, maxScore: 4, minResolveDays: 1, maxResolveDays: 4},
		{name: "Account Management", weight: 0.08, priority: "Normal", minScore: 3, maxScore: 5, minResolveDays: 0, maxResolveDays: 2},
		{name: "Shipping Delay", weight: 0.07, needsOrder: true, priority: "High", minScore: 2, maxScore: 4, minResolveDays: 1, maxResolveDays: 5,
			noteTemplates: []string{
				"Customer inquired about delayed delivery for order #%s",
				"Investigating shipping delay for order #%s",
				"Provided compensation for delayed order #%s",
			}},
	}

	interactionChannels      = []string{"Phone", "Email", "Chat", "Social Media"}
	interactionChannelWeight = []float64{0.4, 0.3, 0.2, 0.1}
	interactionStatuses      = []string{"Open", "In Progress", "Pending Customer", "Escalated", "Resolved", "Closed"}
	interactionStatusWeights = []float64{0.1, 0.15, 0.05, 0.05, 0.15, 0.5}
	genericNotes             = []string{
		"Customer contacted support for assistance",
		"Follow-up scheduled with customer",
		"Issue documented and shared with the team",
		"Customer provided additional details",
		"Walked customer through the available options",
	}
)

type customerInfo struct {
	segment string
	region  string
	created time.Time
}

type categoryRef struct {
	id       int64
	parentID int64
	name     string
}

type pricePeriod struct {
	from  time.Time
	until time.Time
	price float64
}

type bookInfo struct {
	price      float64
	stock      int
	safety     int
	categories []string
	history    []pricePeriod
}

// priceAt is the price in effect on date.
func (b bookInfo) priceAt(date time.Time) float64 {
	for _, period := range b.history {
		if period.from.After(date) {
			continue
		}
		if period.until.IsZero() || date.Before(period.until) {
			return period.price
		}
	}
	return b.price
}

// corpus keeps what later tables refer back to.
type corpus struct {
	cfg  Config
	gen  *generator
	rows map[string]int

	customers        []customerInfo
	salesEmployees   []int64
	serviceEmployees []int64
	allEmployees     []int64
	subcategories    []categoryRef
	books            []bookInfo
	booksByCategory  map[string][]int64
	orderDates       []time.Time
	customerOrders   map[int64][]int64
}

func (c *corpus) customer(id int64) customerInfo {
	return c.customers[id-1]
}

func (c *corpus) seedCustomers(ctx context.Context, w *writerSet) error {
	table, err := w.prepare(ctx, "customers",
		"id", "name", "email", "phone", "address", "segment", "region", "age", "gender",
		"income_level", "account_creation_date", "preferred_contact_method",
		"purchase_frequency", "seasonal_preference")
	if err != nil {
		return err
	}

	g := c.gen
	for i := 1; i <= c.cfg.Customers; i++ {
		id := int64(i)
		name := g.personName()
		info := customerInfo{
			segment: g.weighted(segments, segmentWeights),
			region:  g.weighted(regions, regionWeights),
			created: g.dateBetween(g.start.AddDate(-2, 0, 0), g.end.AddDate(0, -1, 0)),
		}
		c.customers = append(c.customers, info)

		var income float64
		switch info.segment {
		case "VIP":
			income = g.normal(150000, 40000)
		case "Wholesale":
			income = g.normal(90000, 20000)
		default:
			income = g.normal(55000, 15000)
		}
		if err := table.insert(ctx,
			id, name, g.email(name, id), g.phone(), g.address(), info.segment, info.region,
			g.intBetween(18, 80), g.weighted(genders, genderWeights), round2(clamp(income, 15000, 500000)),
			formatDate(info.created), g.weighted(contactMethods, contactWeights),
			g.pick(purchaseFrequencies[info.segment]), g.weighted(seasons, seasonWeights),
		); err != nil {
			return err
		}
	}
	return nil
}

func (c *corpus) seedEmployees(ctx context.Context, w *writerSet) error {
	table, err := w.prepare(ctx, "employees",
		"id", "first_name", "last_name", "title", "department", "manager_id", "hire_date",
		"termination_date", "salary", "bonus", "commission", "kpi_score", "shift", "level")
	if err != nil {
		return err
	}

	counts := make([]int, len(orgLevels))
	total := 0
	for i, level := range orgLevels {
		counts[i] = max(1, int(float64(c.cfg.Employees)*level.ratio))
		total += counts[i]
	}
	if total < c.cfg.Employees {
		counts[len(counts)-1] += c.cfg.Employees - total
	}

	g := c.gen
	var nextID int64
	var managers []int64
	for levelIndex, level := range orgLevels {
		levelNumber := levelIndex + 1
		current := make([]int64, 0, counts[levelIndex])
		for i := 0; i < counts[levelIndex]; i++ {
			nextID++
			department := g.weighted(departments, departmentWeights)
			hired := g.dateBetween(g.start.AddDate(-8, 0, 0), g.end.AddDate(0, 0, -30))
			var terminated time.Time
			if levelNumber >= 4 && g.chance(0.08) {
				terminated = g.dateBetween(hired.AddDate(0, 0, 30), g.end)
			}
			var manager any
			if len(managers) > 0 {
				manager = g.pickID(managers)
			}

			salary := round2(level.baseSalary * g.floatBetween(0.9, 1.2))
			bonusShare := 0.08
			if levelNumber <= 3 {
				bonusShare = 0.2
			}
			commission := 0.0
			if department == "Sales" {
				commission = round2(salary * g.floatBetween(0.03, 0.12))
			}
			shift := "Morning"
			if levelNumber > 3 {
				shift = g.weighted(shifts, shiftWeights)
			}

			if err := table.insert(ctx,
				nextID, g.pick(firstNames), g.pick(lastNames), g.pick(level.titles), department, manager,
				formatDate(hired), nullableDate(terminated), salary, round2(salary*g.floatBetween(0, bonusShare)),
				commission, round2(clamp(g.normal(3.6, 0.6), 1, 5)), shift, levelNumber,
			); err != nil {
				return err
			}

			current = append(current, nextID)
			c.allEmployees = append(c.allEmployees, nextID)
			if terminated.IsZero() {
				switch department {
				case "Sales":
					c.salesEmployees = append(c.salesEmployees, nextID)
				case "Customer Service":
					c.serviceEmployees = append(c.serviceEmployees, nextID)
				}
			}
		}
		managers = current
	}

	if len(c.salesEmployees) == 0 {
		c.salesEmployees = c.allEmployees
	}
	if len(c.serviceEmployees) == 0 {
		c.serviceEmployees = c.allEmployees
	}
	return nil
}

func (c *corpus) seedSuppliers(ctx context.Context, w *writerSet) error {
	table, err := w.prepare(ctx, "suppliers",
		"id", "name", "contact_name", "address", "rating", "location", "contract_terms", "relationship_length")
	if err != nil {
		return err
	}
	g := c.gen
	for i := 1; i <= c.cfg.Suppliers; i++ {
		if err := table.insert(ctx,
			int64(i), g.company(), g.personName(), g.address(), round2(clamp(g.normal(3.8, 0.6), 1, 5)),
			g.weighted([]string{"Domestic", "International"}, []float64{0.7, 0.3}),
			g.pick([]string{"Net 30", "Net 60", "Net 90", "Consignment"}), g.intBetween(1, 20),
		); err != nil {
			return err
		}
	}
	return nil
}

func (c *corpus) seedCategories(ctx context.Context, w *writerSet) error {
	table, err := w.prepare(ctx, "categories", "id", "name", "parent_id", "popularity")
	if err != nil {
		return err
	}

	g := c.gen
	popularity := make([]float64, len(categoryTree))
	for i, parent := range categoryTree {
		popularity[i] = round2(g.floatBetween(1.5, 4.5))
		if err := table.insert(ctx, int64(i+1), parent.name, nil, popularity[i]); err != nil {
			return err
		}
	}
	nextID := int64(len(categoryTree))
	for i, parent := range categoryTree {
		parentID := int64(i + 1)
		for _, child := range parent.children {
			nextID++
			if err := table.insert(ctx, nextID, child, parentID, round2(popularity[i]*g.floatBetween(0.3, 0.9))); err != nil {
				return err
			}
			c.subcategories = append(c.subcategories, categoryRef{id: nextID, parentID: parentID, name: child})
		}
	}
	return nil
}

func (c *corpus) seedAuthors(ctx context.Context, w *writerSet) error {
	table, err := w.prepare(ctx, "authors", "id", "name")
	if err != nil {
		return err
	}
	for i := 1; i <= c.cfg.Authors; i++ {
		if err := table.insert(ctx, int64(i), c.gen.personName()); err != nil {
			return err
		}
	}
	return nil
}

func (c *corpus) seedBooks(ctx context.Context, w *writerSet) error {
	books, err := w.prepare(ctx, "books",
		"id", "title", "isbn", "format", "language", "price", "stock_level", "safety_stock",
		"reorder_point", "publication_date", "supplier_id")
	if err != nil {
		return err
	}
	bookAuthors, err := w.prepare(ctx, "book_authors", "book_id", "author_id")
	if err != nil {
		return err
	}
	bookCategories, err := w.prepare(ctx, "book_categories", "book_id", "category_id")
	if err != nil {
		return err
	}
	priceHistory, err := w.prepare(ctx, "book_price_history",
		"id", "book_id", "price", "effective_date", "end_date", "change_reason")
	if err != nil {
		return err
	}

	g := c.gen
	c.booksByCategory = map[string][]int64{}
	var historyID int64
	for i := 1; i <= c.cfg.Books; i++ {
		id := int64(i)
		format := g.weighted(bookFormats, bookFormatWeights)
		price := round2(clamp(g.normal(18, 6), 4.99, 120) * formatPriceFactor[format])
		safety := g.intBetween(10, 50)
		published := g.dateBetween(g.end.AddDate(-30, 0, 0), g.end.AddDate(0, 0, -7))
		info := bookInfo{price: price, stock: g.intBetween(0, 500), safety: safety}

		if err := books.insert(ctx,
			id, g.bookTitle(), g.isbn(), format, g.weighted(languages, languageWeights), price,
			info.stock, safety, safety+g.intBetween(10, 40), formatDate(published), int64(g.intBetween(1, c.cfg.Suppliers)),
		); err != nil {
			return err
		}

		authors := []int64{int64(g.intBetween(1, c.cfg.Authors))}
		if c.cfg.Authors > 1 && g.chance(0.15) {
			second := int64(g.intBetween(1, c.cfg.Authors))
			if second != authors[0] {
				authors = append(authors, second)
			}
		}
		for _, author := range authors {
			if err := bookAuthors.insert(ctx, id, author); err != nil {
				return err
			}
		}

		sub := c.subcategories[g.rnd.Intn(len(c.subcategories))]
		for _, categoryID := range []int64{sub.id, sub.parentID} {
			if err := bookCategories.insert(ctx, id, categoryID); err != nil {
				return err
			}
		}
		info.categories = []string{sub.name, categoryTree[sub.parentID-1].name}
		c.booksByCategory[sub.name] = append(c.booksByCategory[sub.name], id)

		info.history = c.priceHistory(published, price)
		for _, period := range info.history {
			historyID++
			if err := priceHistory.insert(ctx,
				historyID, id, period.price, formatDate(period.from), nullableDate(period.until), g.pick(priceChangeReason),
			); err != nil {
				return err
			}
		}
		c.books = append(c.books, info)
	}
	return nil
}

// priceHistory returns ascending periods; the last one is open and carries
// the current price.
func (c *corpus) priceHistory(published time.Time, current float64) []pricePeriod {
	g := c.gen
	if !g.chance(0.3) {
		return nil
	}
	from := published
	if from.Before(g.start) {
		from = g.start
	}
	changes := g.intBetween(1, 3)
	dates := make([]time.Time, 0, changes)
	for i := 0; i < changes; i++ {
		dates = append(dates, g.dateBetween(from, g.end))
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	periods := make([]pricePeriod, 0, changes)
	for i, date := range dates {
		if i > 0 && !date.After(dates[i-1]) {
			continue
		}
		periods = append(periods, pricePeriod{from: date, price: round2(current * g.floatBetween(0.8, 1.15))})
	}
	for i := range periods[:len(periods)-1] {
		periods[i].until = periods[i+1].from
	}
	periods[len(periods)-1].price = current
	return periods
}

func (c *corpus) seedShippers(ctx context.Context, w *writerSet) error {
	table, err := w.prepare(ctx, "shippers", "id", "name", "phone", "service_area", "base_cost", "performance_rating")
	if err != nil {
		return err
	}
	g := c.gen
	for i := 1; i <= c.cfg.Shippers; i++ {
		deliverySpeed := g.normal(4.2, 0.5)
		reliability := g.normal(0.95, 0.03)
		model := g.weighted(costModels, costModelWeights)
		if err := table.insert(ctx,
			int64(i), g.company(), g.phone(), g.weighted(serviceAreas, serviceAreaWeights),
			round2(g.normal(15, 3)*costModelMultiplier[model]),
			round2(clamp((deliverySpeed+reliability*5)/2, 1, 5)),
		); err != nil {
			return err
		}
	}
	return nil
}

func (c *corpus) seedOrders(ctx context.Context, w *writerSet) error {
	orders, err := w.prepare(ctx, "orders",
		"id", "order_date", "status", "shipping_method", "payment_method", "discount", "tax",
		"notes", "customer_id", "employee_id", "shipper_id")
	if err != nil {
		return err
	}
	items, err := w.prepare(ctx, "order_items", "id", "order_id", "book_id", "quantity", "unit_price")
	if err != nil {
		return err
	}

	g := c.gen
	c.customerOrders = map[int64][]int64{}
	var itemID int64
	for i := 1; i <= c.cfg.Orders; i++ {
		id := int64(i)
		customerID := c.pickCustomer()
		customer := c.customer(customerID)
		date := g.seasonalDate()
		if date.Before(customer.created) {
			date = g.dateBetween(customer.created, g.end)
		}

		discount := g.rnd.ExpFloat64() * 5
		switch date.Month() {
		case time.November, time.December:
			discount *= 2
		case time.July, time.August:
			discount *= 1.5
		}

		var status, payment, shipping string
		if g.chance(0.01) {
			status, payment = "Pending", "Gift Card"
			shipping = g.pick([]string{"Expedited", "International"})
		} else {
			status = g.weighted(orderStatuses, orderStatusWeights)
			payment = g.weighted(paymentMethods, paymentMethodWeights)
			shipping = g.weighted(shippingMethods, shippingMethodWeights)
		}
		if status == "Delivered" && g.end.Sub(date) < 7*24*time.Hour {
			status = "Shipped"
		}
		var notes any
		if g.chance(0.1) {
			notes = g.pick(orderNotes)
		}

		if err := orders.insert(ctx,
			id, formatDate(date), status, shipping, payment, round2(discount),
			round2(g.floatBetween(5, 50)*0.08*regionTax[customer.region]), notes,
			customerID, g.pickID(c.salesEmployees), int64(g.intBetween(1, c.cfg.Shippers)),
		); err != nil {
			return err
		}
		c.orderDates = append(c.orderDates, date)
		c.customerOrders[customerID] = append(c.customerOrders[customerID], id)

		for _, line := range c.orderLines(date, customer.segment) {
			itemID++
			if err := items.insert(ctx, itemID, id, line.book, line.quantity, line.unitPrice); err != nil {
				return err
			}
		}
	}
	return nil
}

// pickCustomer leans away from retail customers so wholesale and VIP
// accounts order more often.
func (c *corpus) pickCustomer() int64 {
	id := int64(c.gen.intBetween(1, len(c.customers)))
	if c.customer(id).segment == "Retail" && c.gen.chance(0.4) {
		id = int64(c.gen.intBetween(1, len(c.customers)))
	}
	return id
}

type orderLine struct {
	book      int64
	quantity  int
	unitPrice float64
}

func (c *corpus) orderLines(date time.Time, segment string) []orderLine {
	g := c.gen
	if g.chance(0.15) {
		if lines := c.bundleLines(date); len(lines) > 0 {
			return lines
		}
	}

	count := g.intBetween(1, 4)
	seen := make(map[int64]struct{}, count)
	lines := make([]orderLine, 0, count)
	for len(lines) < count {
		book := int64(g.intBetween(1, len(c.books)))
		if _, dup := seen[book]; dup {
			if len(seen) >= len(c.books) {
				break
			}
			continue
		}
		seen[book] = struct{}{}
		info := c.books[book-1]

		quantity := 1
		switch {
		case hasCategory(info, "Textbooks", "Reference"):
			quantity = int(g.rnd.ExpFloat64()*2) + 1
		case segment == "Wholesale":
			quantity = g.intBetween(5, 20)
		case !g.chance(0.8):
			quantity = g.intBetween(2, 3)
		}

		price := info.priceAt(date)
		if quantity > 2 {
			price *= 0.9
		}
		if info.stock > info.safety*2 {
			price *= 0.95
		}
		lines = append(lines, orderLine{book: book, quantity: quantity, unitPrice: round2(price)})
	}
	return lines
}

// bundleLines sells three to five books of related categories at 20% off.
func (c *corpus) bundleLines(date time.Time) []orderLine {
	g := c.gen
	pattern := bundlePatterns[g.rnd.Intn(len(bundlePatterns))]
	var candidates []int64
	for _, category := range pattern {
		candidates = append(candidates, c.booksByCategory[category]...)
	}
	size := g.intBetween(3, 5)
	if len(candidates) < size {
		return nil
	}
	g.rnd.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })

	lines := make([]orderLine, 0, size)
	for _, book := range candidates[:size] {
		lines = append(lines, orderLine{book: book, quantity: 1, unitPrice: round2(c.books[book-1].priceAt(date) * 0.8)})
	}
	return lines
}

func hasCategory(info bookInfo, names ...string) bool {
	for _, have := range info.categories {
		for _, want := range names {
			if have == want {
				return true
			}
		}
	}
	return false
}

func (c *corpus) seedInteractions(ctx context.Context, w *writerSet) error {
	table, err := w.prepare(ctx, "customer_service_interactions",
		"id", "customer_id", "order_id", "interaction_date", "interaction_type", "channel", "priority",
		"status", "resolution_date", "satisfaction_score", "notes", "employee_id")
	if err != nil {
		return err
	}

	weights := make([]float64, len(interactionKinds))
	names := make([]string, len(interactionKinds))
	for i, kind := range interactionKinds {
		weights[i], names[i] = kind.weight, kind.name
	}

	g := c.gen
	for i := 1; i <= c.cfg.Interactions; i++ {
		kindName := g.weighted(names, weights)
		var kind interactionKind
		for _, candidate := range interactionKinds {
			if candidate.name == kindName {
				kind = candidate
				break
			}
		}

		customerID := int64(g.intBetween(1, len(c.customers)))
		var orderID any
		orderRef := "N/A"
		from, to := c.customer(customerID).created, g.end
		if placed := c.customerOrders[customerID]; kind.needsOrder && len(placed) > 0 {
			chosen := g.pickID(placed)
			orderID, orderRef = chosen, fmt.Sprint(chosen)
			from = c.orderDates[chosen-1]
			to = from.AddDate(0, 0, 30)
			if to.After(g.end) {
				to = g.end
			}
		}
		date := g.dateBetween(from, to)

		status := g.weighted(interactionStatuses, interactionStatusWeights)
		var resolved time.Time
		var score any
		if status == "Resolved" || status == "Closed" {
			resolved = date.AddDate(0, 0, g.intBetween(kind.minResolveDays, kind.maxResolveDays))
			score = g.intBetween(kind.minScore, kind.maxScore)
		}

		notes := g.pick(genericNotes)
		if len(kind.noteTemplates) > 0 {
			template := g.pick(kind.noteTemplates)
			if len(kind.templateDetails) > 0 {
				notes = fmt.Sprintf(template, orderRef, g.pick(kind.templateDetails))
			} else {
				notes = fmt.Sprintf(template, orderRef)
			}
		}

		if err := table.insert(ctx,
			int64(i), customerID, orderID, formatDate(date), kind.name,
			g.weighted(interactionChannels, interactionChannelWeight), kind.priority, status,
			nullableDate(resolved), score, notes, g.pickID(c.serviceEmployees),
		); err != nil {
			return err
		}
	}
	return nil
}
