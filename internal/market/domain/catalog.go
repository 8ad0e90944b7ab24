package domain

import "github.com/shopspring/decimal"

// CatalogEntry 静态商品目录条目
type CatalogEntry struct {
	ItemID    string
	Name      string
	Category  ItemCategory
	BaseValue float64
}

// SeedCatalog 初始化账本的静态矿石/矿物目录
var SeedCatalog = []CatalogEntry{
	{ItemID: "veldspar", Name: "Veldspar", Category: CategoryOre, BaseValue: 8},
	{ItemID: "scordite", Name: "Scordite", Category: CategoryOre, BaseValue: 12},
	{ItemID: "pyroxeres", Name: "Pyroxeres", Category: CategoryOre, BaseValue: 20},
	{ItemID: "plagioclase", Name: "Plagioclase", Category: CategoryOre, BaseValue: 25},
	{ItemID: "kernite", Name: "Kernite", Category: CategoryOre, BaseValue: 45},
	{ItemID: "jaspet", Name: "Jaspet", Category: CategoryOre, BaseValue: 80},
	{ItemID: "hemorphite", Name: "Hemorphite", Category: CategoryOre, BaseValue: 100},
	{ItemID: "hedbergite", Name: "Hedbergite", Category: CategoryOre, BaseValue: 180},
	{ItemID: "mercoxit", Name: "Mercoxit", Category: CategoryOre, BaseValue: 500},

	{ItemID: "tritanium", Name: "Tritanium", Category: CategoryMineral, BaseValue: 5},
	{ItemID: "pyerite", Name: "Pyerite", Category: CategoryMineral, BaseValue: 10},
	{ItemID: "mexallon", Name: "Mexallon", Category: CategoryMineral, BaseValue: 30},
	{ItemID: "isogen", Name: "Isogen", Category: CategoryMineral, BaseValue: 60},
	{ItemID: "nocxium", Name: "Nocxium", Category: CategoryMineral, BaseValue: 150},
	{ItemID: "zydrine", Name: "Zydrine", Category: CategoryMineral, BaseValue: 500},
	{ItemID: "megacyte", Name: "Megacyte", Category: CategoryMineral, BaseValue: 1200},
	{ItemID: "morphite", Name: "Morphite", Category: CategoryMineral, BaseValue: 5000},
}

// SeedItems 从静态目录生成商品列表
func SeedItems() []*MarketItem {
	items := make([]*MarketItem, 0, len(SeedCatalog))
	for _, entry := range SeedCatalog {
		items = append(items, NewMarketItem(
			entry.ItemID, entry.Name, entry.Category, decimal.NewFromFloat(entry.BaseValue)))
	}
	return items
}
