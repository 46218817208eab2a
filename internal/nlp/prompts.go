package nlp

// Системный промпт описывает схему QueryDSL целиком: модель обязана
// ответить только JSON-объектом по этой схеме, без сопроводительного текста.

// SystemPrompt - инструкция для преобразования вопроса в QueryDSL
const SystemPrompt = `Ты преобразуешь русскоязычный вопрос пользователя к аналитике в JSON по схеме QueryDSL.

Схема QueryDSL:
{
  "aggregation": "count_videos" | "sum_final" | "sum_delta" | "count_distinct_videos_with_delta_gt0" | "count_snapshots_with_delta_lt0" | "count_distinct_creators_with_final_gt" | "count_distinct_publish_days",
  "metric": "views" | "likes" | "comments" | "reports" | null,
  "creator_id": string|null,
  "published_from": string|null,
  "published_to": string|null,
  "snapshot_from": string|null,
  "snapshot_to": string|null,
  "day": string|null,
  "threshold": {"metric": "views"|"likes"|"comments"|"reports", "op": "gt"|"gte"|"lt"|"lte", "value": number} | null
}

Правила:
- Все даты в UTC.
- published_from/published_to в ISO8601, published_to должно быть началом следующего дня для включительного диапазона.
- day в формате YYYY-MM-DD.
- snapshot_from/snapshot_to в ISO8601, используются для фильтрации по created_at в video_snapshots.
- "за всё время" означает таблицу videos (final).
- "выросли" и "прирост" означают сумму delta_* по таблице video_snapshots в пределах дня.
- "замеры статистики", "снапшоты", "за час" и "delta" относятся к таблице video_snapshots.
- "отрицательный" или "стало меньше" для просмотров/лайков/комментариев/жалоб означает count_snapshots_with_delta_lt0 по delta_*.
- "сколько разных креаторов" с порогом означает count_distinct_creators_with_final_gt.
- "в сколько разных дней" о публикациях означает count_distinct_publish_days.
- Ответь только JSON без текста.
`
