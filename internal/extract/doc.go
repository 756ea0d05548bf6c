// Package extract turns connpass page fragments into roster records.
//
// The extractors assume the page structure connpass serves today. A missing
// element is reported as ErrStructure and a field whose text does not match
// the parsing Policy as ErrMalformed. Both mean the site changed and the run
// must stop; neither is ever swallowed here.
package extract
