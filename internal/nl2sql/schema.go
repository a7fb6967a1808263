package nl2sql

import _ "embed"

// WindforestSchema is the DDL of the bookstore demo corpus.
//
//go:embed windforest.sql
var WindforestSchema string

const WindforestContext = `Business Context:
- Customers: Segmented into Retail, Wholesale, and VIP with varying purchase frequencies
- Orders: Show seasonal patterns with peaks in November-December (holidays) and July-August (back to school)
- Books: Managed with price history, categories, and multiple authors
- Customer Service: Tracks interactions, satisfaction scores, and resolution times
- Fraud Detection: Monitors for suspicious patterns like multiple same-day orders and unusual shipping
- Inventory: Tracks stock levels, safety stock, and reorder points
- Suppliers: Rated based on sales performance and stock management`
