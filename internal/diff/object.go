package diff

import (
	"github.com/leapstack-labs/sqlforensic/internal/connector"
)

// Object type labels recorded in ObjectModification.ObjectType.
const (
	ObjectProcedure = "procedure"
	ObjectView      = "view"
	ObjectFunction  = "function"
)

// DiffProcedures compares stored procedures by normalized body hash.
func DiffProcedures(source, target []connector.Routine) ObjectDiff {
	return diffObjects(source, target, ObjectProcedure)
}

// DiffViews compares views by normalized body hash.
func DiffViews(source, target []connector.Routine) ObjectDiff {
	return diffObjects(source, target, ObjectView)
}

// DiffFunctions compares functions by normalized body hash.
func DiffFunctions(source, target []connector.Routine) ObjectDiff {
	return diffObjects(source, target, ObjectFunction)
}

func diffObjects(source, target []connector.Routine, objectType string) ObjectDiff {
	sourceMap := make(map[string]connector.Routine, len(source))
	for _, o := range source {
		sourceMap[o.Schema+"."+o.Name] = o
	}
	targetMap := make(map[string]connector.Routine, len(target))
	for _, o := range target {
		targetMap[o.Schema+"."+o.Name] = o
	}

	var d ObjectDiff
	for _, k := range sortedKeys(sourceMap) {
		if _, ok := targetMap[k]; !ok {
			d.Added = append(d.Added, ObjectRef{Schema: sourceMap[k].Schema, Name: sourceMap[k].Name})
		}
	}
	for _, k := range sortedKeys(targetMap) {
		if _, ok := sourceMap[k]; !ok {
			d.Removed = append(d.Removed, ObjectRef{Schema: targetMap[k].Schema, Name: targetMap[k].Name})
		}
	}
	for _, k := range sortedKeys(sourceMap) {
		tgt, ok := targetMap[k]
		if !ok {
			continue
		}
		src := sourceMap[k]
		srcHash := HashBody(src.Body)
		tgtHash := HashBody(tgt.Body)
		if srcHash != tgtHash {
			d.Modified = append(d.Modified, ObjectModification{
				Name:       src.Name,
				Schema:     src.Schema,
				ObjectType: objectType,
				SourceHash: srcHash,
				TargetHash: tgtHash,
			})
		}
	}
	return d
}
