// Package card parses taxonomic card documents.
//
// A card is an HTML5 document whose <body> carries the card metadata as data-*
// attributes and holds a fixed sequence of sections:
//
//	<body data-taxoid="45072" data-instrumentid="Zooscan">
//	  <svg class="svg-templates"><defs>...</defs></svg>
//	  <article class="morpho-criteria">...</article>
//	  <div class="descriptive-schemas">...</div>
//	  <div class="more-examples">...</div>
//	  <div class="photos-and-figures">...</div>
//	  <div class="possible-confusions">...</div>
//	</body>
//
// Parse is stricter than an HTML5 browser: cards are machine written, so every
// element must be explicitly closed, in order, and self-closing syntax is only
// accepted on void elements and inside <svg>. Anything else is a *ParseError.
package card
