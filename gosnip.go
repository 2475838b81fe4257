// Package gosnip renders HTML snippets from template files and caches the
// rendered output against the source file.
//
// A cached rendering stays valid until the template file is edited or the
// backing store expires it. Cached output is returned verbatim, without
// applying the variables registered on the Snippet.
//
// Basic usage:
//
//	import (
//	    "github.com/ZaguanLabs/gosnip"
//	    "github.com/ZaguanLabs/gosnip/cache"
//	    "github.com/ZaguanLabs/gosnip/processor"
//	)
//
//	func main() {
//	    store, err := cache.NewDiskCache("/var/cache/snippets")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    s, err := gosnip.New("card.html", "views/snippets",
//	        gosnip.WithCache(store),
//	        gosnip.WithProcessor(processor.NewHTMLProcessor()),
//	    )
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    out, err := s.AddVariable("title", "Hello").Render()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(out)
//	}
package gosnip
