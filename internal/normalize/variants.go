package normalize

import (
	"sort"

	"github.com/maialino123/ecomate-extract/internal/rawval"
	"github.com/maialino123/ecomate-extract/internal/sku"
	urlutil "github.com/maialino123/ecomate-extract/internal/utils/url"
	"github.com/maialino123/ecomate-extract/pkg/models"
)

// SpecAttribute is the single attribute a parsed SKU spec string is stored
// under. Compound specs are not split.
const SpecAttribute = "规格"

// skuVariations prefers the parsed skuMap, then skuInfoMap, then skuProps.
// The result is never nil.
func skuVariations(raw models.RawRecord) []models.SKUVariation {
	if items := sku.ItemsFrom(raw[sku.RecordKeyMap]); len(items) > 0 {
		return fromSKUMap(items, sku.ImagesFrom(raw[sku.RecordKeyImages]))
	}
	if skus := fromSKUInfoMap(raw["skuInfoMap"]); len(skus) > 0 {
		return skus
	}
	if skus := fromSKUProps(raw["skuProps"]); len(skus) > 0 {
		return skus
	}
	return []models.SKUVariation{}
}

func fromSKUMap(items []sku.Item, images map[string]string) []models.SKUVariation {
	out := make([]models.SKUVariation, 0, len(items))
	for _, it := range items {
		v := models.SKUVariation{
			SkuID:      it.SkuID,
			Attributes: models.NewAttributes(),
		}
		if it.SpecAttrs != "" {
			v.Attributes.Set(SpecAttribute, it.SpecAttrs)
		}
		switch {
		case it.Price != nil && *it.Price > 0:
			v.Price = it.Price
		case it.DiscountPrice != nil && *it.DiscountPrice > 0:
			v.Price = it.DiscountPrice
		}
		if it.CanBookCount != nil && *it.CanBookCount >= 0 {
			v.Stock = it.CanBookCount
		}
		if img := sku.FindImage(it.SpecAttrs, images); img != "" {
			v.Image = urlutil.CanonicalImageURL(img)
		}
		out = append(out, v)
	}
	return out
}

func fromSKUInfoMap(v any) []models.SKUVariation {
	infoMap, ok := rawval.Map(v)
	if !ok {
		return nil
	}

	ids := make([]string, 0, len(infoMap))
	for id := range infoMap {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]models.SKUVariation, 0, len(ids))
	for _, id := range ids {
		info, ok := rawval.Map(infoMap[id])
		if !ok {
			continue
		}
		sv := models.SKUVariation{SkuID: id, Attributes: models.NewAttributes()}
		for _, key := range []string{"specAttrs", "attributes"} {
			copyAttributes(sv.Attributes, info[key])
		}
		if price, ok := rawval.Float(info["price"]); ok && price > 0 {
			sv.Price = &price
		}
		if stock, ok := lookupInt(info, "canBookCount", "stock"); ok && stock >= 0 {
			sv.Stock = &stock
		}
		if img, ok := rawval.LookupString(info, "skuImage", "image"); ok {
			sv.Image = urlutil.CanonicalImageURL(img)
		}
		out = append(out, sv)
	}
	return out
}

// copyAttributes adds an attribute object's entries in key order.
func copyAttributes(dst *models.Attributes, v any) {
	m, ok := rawval.Map(v)
	if !ok {
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if s, ok := rawval.String(m[k]); ok {
			dst.Set(k, s)
		}
	}
}

func fromSKUProps(v any) []models.SKUVariation {
	props, ok := rawval.Slice(v)
	if !ok {
		return nil
	}

	var out []models.SKUVariation
	for _, p := range props {
		prop, ok := rawval.Map(p)
		if !ok {
			continue
		}
		name, _ := rawval.LookupString(prop, "name", "prop")
		values, _ := rawval.Slice(prop["value"])
		for _, val := range values {
			vm, ok := rawval.Map(val)
			if !ok {
				continue
			}
			sv := models.SKUVariation{Attributes: models.NewAttributes()}
			sv.SkuID, _ = rawval.String(vm["id"])
			if value, ok := rawval.LookupString(vm, "name", "text"); ok && name != "" {
				sv.Attributes.Set(name, value)
			}
			if img, ok := rawval.LookupString(vm, "imageUrl", "image"); ok {
				sv.Image = urlutil.CanonicalImageURL(img)
			}
			out = append(out, sv)
		}
	}
	return out
}
