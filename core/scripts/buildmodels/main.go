package main

import (
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/gen"
	"gorm.io/gorm"
)

// Regenerates gorm models from a live gym schema. Run against a development
// database after a migration, then reconcile the output with gym/model.
func main() {
	g := gen.NewGenerator(gen.Config{
		OutPath:      "../../../gym/model/generated",
		ModelPkgPath: "generated",
		Mode:         gen.WithoutContext | gen.WithDefaultQuery | gen.WithQueryInterface,
	})

	g.WithDataTypeMap(map[string]func(gorm.ColumnType) (dataType string){
		"decimal": func(gorm.ColumnType) string {
			return "float64"
		},
	})

	dsn := os.Getenv("DSN")
	if dsn == "" {
		dsn = "root:development@tcp(127.0.0.1:3306)/wolfgym?parseTime=true"
	}

	gormdb, _ := gorm.Open(mysql.Open(dsn))
	g.UseDB(gormdb)

	g.GenerateAllTable()
	g.ApplyBasic()

	g.Execute()
}
