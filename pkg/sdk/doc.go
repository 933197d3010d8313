// Package techsearch is an embedded Go client for the techsearch company and
// technology dataset. It opens the dataset directly (SQLite or DuckDB) and
// runs the same filter compiler, search, export and typeahead logic as the
// HTTP service.
//
//	client, _ := techsearch.New(ctx, techsearch.WithSQLite("companies.db"))
//	defer client.Close()
//
//	page, _ := client.Search(ctx, techsearch.SearchRequest{
//	    Filters: techsearch.And(
//	        techsearch.Where("tech_name", "=", "React"),
//	        techsearch.Or(
//	            techsearch.Where("country", "=", "US"),
//	            techsearch.Where("country", "=", "CA"),
//	        ),
//	    ),
//	    Sort: []techsearch.Sort{{Field: "spend", Direction: "desc"}},
//	})
//
//	exp, _ := client.Export(ctx, req, 5000)
//	_ = exp.WriteCSV(os.Stdout)
//
//	names, _ := client.Suggest(ctx, "tech_name", "Rea")
package techsearch
